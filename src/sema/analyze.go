package sema

import (
	"minic/src/ast"
	"minic/src/util"
)

const attrType = "type"

func setType(n *ast.Node, t ast.Type) { n.SetAttr(attrType, t) }

// analyzer is the tree-walking visitor of C5, carrying the three pieces of
// state spec.md §4.5 names: current_function, loop_depth and errors.
type analyzer struct {
	diags       *util.Diagnostics
	currentFunc *ast.Node // enclosing FuncDecl, nil at global scope
	loopDepth   int
	// reportedDup suppresses repeat "duplicate symbol" diagnostics for a
	// name already reported once in a given scope, mirroring
	// original_source/p3-analysis/src/p3-analysis.c's
	// AnalysisVisitor_check_duplicate_symbols, which uses
	// contains_element_string the same way: a 3rd, 4th, ... occurrence of
	// the same name in one scope reports nothing further.
	reportedDup map[*SymTab]map[string]bool
}

// Analyze walks root (a Program node), resolving symbols and inferring
// types in place via node Attrs, and returns every diagnostic found.
// Analysis always runs to completion; it never aborts on the first error
// (spec.md §4.5), matching the teacher's ValidateTree, which also keeps
// validating every function after the first type error is reported.
func Analyze(root *ast.Node) *util.Diagnostics {
	a := &analyzer{diags: util.NewDiagnostics(8), reportedDup: make(map[*SymTab]map[string]bool)}
	a.analyzeProgram(root)
	return a.diags
}

// declare inserts sym into scope, reporting at most one diagnostic per
// duplicated name in that scope regardless of how many extra occurrences
// follow the first duplicate.
func (a *analyzer) declare(scope *SymTab, sym *Symbol, node *ast.Node, scopeLine int) {
	if scope.Insert(sym) {
		return
	}
	reported := a.reportedDup[scope]
	if reported == nil {
		reported = make(map[string]bool)
		a.reportedDup[scope] = reported
	}
	if reported[sym.Name] {
		return
	}
	reported[sym.Name] = true
	a.diags.Add(node.Line, "Duplicate symbols named '%s' in scope started on line %d", sym.Name, scopeLine)
}

func (a *analyzer) analyzeProgram(root *ast.Node) {
	data := root.Data.(ast.ProgramData)
	global := NewSymTab(nil)
	setSymTab(root, global)

	for _, g := range data.Globals {
		a.declareVarDecl(g, global, root.Line, true)
	}

	// Functions are declared before any body is analyzed, so forward and
	// mutually recursive calls resolve regardless of declaration order.
	funcSyms := make([]*Symbol, len(data.Functions))
	for i, fn := range data.Functions {
		fd := fn.Data.(ast.FuncDeclData)
		params := fn.Children[:len(fn.Children)-1]
		paramSyms := make([]*Symbol, len(params))
		for j, p := range params {
			pd := p.Data.(ast.ParamData)
			paramSyms[j] = &Symbol{Name: pd.Name, Kind: Scalar, Typ: pd.Typ, Length: 1}
		}
		sym := &Symbol{Name: fd.Name, Kind: Function, Typ: fd.ReturnType, Parameters: paramSyms}
		funcSyms[i] = sym
		a.declare(global, sym, fn, root.Line)
	}

	a.checkMain(global, root)

	for i, fn := range data.Functions {
		a.analyzeFuncDecl(fn, funcSyms[i], global)
	}
}

func (a *analyzer) checkMain(global *SymTab, root *ast.Node) {
	sym, ok := global.Local("main")
	if !ok {
		a.diags.Add(root.Line, "'main' function is not defined")
		return
	}
	if sym.Kind != Function {
		a.diags.Add(root.Line, "'main' must be a function")
		return
	}
	if sym.Typ != ast.Int {
		a.diags.Add(root.Line, "'main' must return int")
	}
	if len(sym.Parameters) != 0 {
		a.diags.Add(root.Line, "'main' must take no parameters")
	}
}

// declareVarDecl inserts a VarDecl's symbol into scope, flagging the check
// that applies to every declaration (non-void) plus, for local declarations,
// the array-at-global-scope-only restriction. A non-positive array length
// never reaches here: parseVarDecl already rejects it.
func (a *analyzer) declareVarDecl(decl *ast.Node, scope *SymTab, scopeLine int, isGlobal bool) {
	vd := decl.Data.(ast.VarDeclData)
	if vd.Typ == ast.Void {
		a.diags.Add(decl.Line, "Variable '%s' cannot have type void", vd.Name)
	}
	if vd.IsArray && !isGlobal {
		a.diags.Add(decl.Line, "Array '%s' is not allowed outside global scope", vd.Name)
	}
	kind := Scalar
	if vd.IsArray {
		kind = Array
	}
	sym := &Symbol{Name: vd.Name, Kind: kind, Typ: vd.Typ, Length: vd.Length}
	a.declare(scope, sym, decl, scopeLine)
	setSymbol(decl, sym)
}

func (a *analyzer) analyzeFuncDecl(fn *ast.Node, sym *Symbol, global *SymTab) {
	fnScope := NewSymTab(global)
	setSymTab(fn, fnScope)

	params := fn.Children[:len(fn.Children)-1]
	body := fn.Children[len(fn.Children)-1]
	for j, p := range params {
		a.declare(fnScope, sym.Parameters[j], p, fn.Line)
		setSymbol(p, sym.Parameters[j])
	}

	prevFunc := a.currentFunc
	a.currentFunc = fn
	a.analyzeBlock(body, fnScope)
	a.currentFunc = prevFunc
}

func (a *analyzer) analyzeBlock(block *ast.Node, parent *SymTab) {
	scope := NewSymTab(parent)
	setSymTab(block, scope)
	data := block.Data.(ast.BlockData)
	decls := block.Children[:data.NumDecls]
	stmts := block.Children[data.NumDecls:]

	for _, decl := range decls {
		a.declareVarDecl(decl, scope, block.Line, false)
	}
	for _, stmt := range stmts {
		a.analyzeStatement(stmt, scope)
	}
}

// ----------------------------
// ----- Statements ------------
// ----------------------------

func (a *analyzer) analyzeStatement(stmt *ast.Node, scope *SymTab) {
	switch stmt.Kind {
	case ast.Assignment:
		loc, val := stmt.Children[0], stmt.Children[1]
		a.analyzeLocation(loc, scope)
		a.analyzeExpr(val, scope)
		lt, vt := loc.Type(), val.Type()
		if lt != ast.Unknown && vt != ast.Unknown && lt != vt {
			a.diags.Add(stmt.Line, "Type mismatch in assignment: cannot assign %s to %s", vt, lt)
		}
	case ast.Conditional:
		cond := stmt.Children[0]
		a.analyzeExpr(cond, scope)
		if cond.Type() != ast.Unknown && cond.Type() != ast.Bool {
			a.diags.Add(stmt.Line, "Condition must be of type bool, got %s", cond.Type())
		}
		a.analyzeBlock(stmt.Children[1], scope)
		if len(stmt.Children) == 3 {
			a.analyzeBlock(stmt.Children[2], scope)
		}
	case ast.WhileLoop:
		cond := stmt.Children[0]
		a.analyzeExpr(cond, scope)
		if cond.Type() != ast.Unknown && cond.Type() != ast.Bool {
			a.diags.Add(stmt.Line, "Condition must be of type bool, got %s", cond.Type())
		}
		a.loopDepth++
		a.analyzeBlock(stmt.Children[1], scope)
		a.loopDepth--
	case ast.Return:
		a.analyzeReturn(stmt, scope)
	case ast.Break:
		if a.loopDepth <= 0 {
			a.diags.Add(stmt.Line, "'break' outside of a loop")
		}
	case ast.Continue:
		if a.loopDepth <= 0 {
			a.diags.Add(stmt.Line, "'continue' outside of a loop")
		}
	case ast.FuncCall:
		a.analyzeFuncCall(stmt, scope)
	}
}

func (a *analyzer) analyzeReturn(stmt *ast.Node, scope *SymTab) {
	var retType ast.Type = ast.Void
	if a.currentFunc != nil {
		retType = a.currentFunc.Data.(ast.FuncDeclData).ReturnType
	}
	if len(stmt.Children) == 0 {
		if retType != ast.Void {
			a.diags.Add(stmt.Line, "Missing return value in function returning %s", retType)
		}
		return
	}
	val := stmt.Children[0]
	a.analyzeExpr(val, scope)
	if retType == ast.Void {
		a.diags.Add(stmt.Line, "void function cannot return a value")
		return
	}
	if val.Type() != ast.Unknown && val.Type() != retType {
		a.diags.Add(stmt.Line, "Mismatched return type: expected %s, got %s", retType, val.Type())
	}
}

// ----------------------------
// ----- Expressions -----------
// ----------------------------

func (a *analyzer) analyzeExpr(n *ast.Node, scope *SymTab) {
	switch n.Kind {
	case ast.Literal:
		setType(n, n.Data.(ast.LiteralData).Typ)
	case ast.Location:
		a.analyzeLocation(n, scope)
	case ast.FuncCall:
		a.analyzeFuncCall(n, scope)
	case ast.BinaryOp:
		a.analyzeBinaryOp(n, scope)
	case ast.UnaryOp:
		a.analyzeUnaryOp(n, scope)
	}
}

func (a *analyzer) analyzeLocation(n *ast.Node, scope *SymTab) {
	ld := n.Data.(ast.LocationData)
	sym, ok := scope.Lookup(ld.Name)
	if !ok {
		a.diags.Add(n.Line, "Symbol '%s' undefined", ld.Name)
		setType(n, ast.Unknown)
		return
	}
	if sym.Kind == Function {
		a.diags.Add(n.Line, "'%s' is a function and cannot be used as a variable", ld.Name)
		setType(n, ast.Unknown)
		return
	}
	hasIndex := len(n.Children) > 0
	if sym.Kind == Array && !hasIndex {
		a.diags.Add(n.Line, "Array '%s' must be indexed", ld.Name)
	}
	if sym.Kind == Scalar && hasIndex {
		a.diags.Add(n.Line, "Scalar '%s' cannot be indexed", ld.Name)
	}
	if hasIndex {
		idx := n.Children[0]
		a.analyzeExpr(idx, scope)
		if idx.Type() != ast.Unknown && idx.Type() != ast.Int {
			a.diags.Add(n.Line, "Array index must be of type int, got %s", idx.Type())
		}
	}
	setSymbol(n, sym)
	setType(n, sym.Typ)
}

// builtinArgType maps the intrinsic calls that never resolve through the
// symbol table (spec.md §4.6's print_int/print_bool/print_str) to the type of
// their single argument.
var builtinArgType = map[string]ast.Type{
	"print_int":  ast.Int,
	"print_bool": ast.Bool,
	"print_str":  ast.Str,
}

func (a *analyzer) analyzeFuncCall(n *ast.Node, scope *SymTab) {
	fd := n.Data.(ast.FuncCallData)
	for _, arg := range n.Children {
		a.analyzeExpr(arg, scope)
	}
	if want, isBuiltin := builtinArgType[fd.Callee]; isBuiltin {
		if len(n.Children) != 1 {
			a.diags.Add(n.Line, "'%s' expects exactly 1 argument, got %d", fd.Callee, len(n.Children))
		} else if got := n.Children[0].Type(); got != ast.Unknown && got != want {
			a.diags.Add(n.Line, "'%s' expects an argument of type %s, got %s", fd.Callee, want, got)
		}
		setType(n, ast.Void)
		return
	}

	sym, ok := scope.Lookup(fd.Callee)
	if !ok {
		a.diags.Add(n.Line, "Symbol '%s' undefined", fd.Callee)
		setType(n, ast.Unknown)
		return
	}
	if sym.Kind != Function {
		a.diags.Add(n.Line, "'%s' is not a function", fd.Callee)
		setType(n, ast.Unknown)
		return
	}
	if len(n.Children) != len(sym.Parameters) {
		a.diags.Add(n.Line, "'%s' expects %d argument(s), got %d", fd.Callee, len(sym.Parameters), len(n.Children))
	} else {
		for i, arg := range n.Children {
			at, pt := arg.Type(), sym.Parameters[i].Typ
			if at != ast.Unknown && pt != ast.Unknown && at != pt {
				a.diags.Add(arg.Line, "Argument %d of '%s': expected %s, got %s", i+1, fd.Callee, pt, at)
			}
		}
	}
	setSymbol(n, sym)
	setType(n, sym.Typ)
}

func (a *analyzer) analyzeBinaryOp(n *ast.Node, scope *SymTab) {
	op := n.Data.(ast.BinOp)
	left, right := n.Children[0], n.Children[1]
	a.analyzeExpr(left, scope)
	a.analyzeExpr(right, scope)
	lt, rt := left.Type(), right.Type()
	unknown := lt == ast.Unknown || rt == ast.Unknown

	switch op {
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod:
		if !unknown && (lt != ast.Int || rt != ast.Int) {
			a.diags.Add(n.Line, "Operands of arithmetic operator must both be int, got %s and %s", lt, rt)
		}
		setType(n, resultOrUnknown(unknown, ast.Int))
	case ast.Lt, ast.Le, ast.Gt, ast.Ge:
		if !unknown && (lt != ast.Int || rt != ast.Int) {
			a.diags.Add(n.Line, "Operands of relational operator must both be int, got %s and %s", lt, rt)
		}
		setType(n, resultOrUnknown(unknown, ast.Bool))
	case ast.And, ast.Or:
		if !unknown && (lt != ast.Bool || rt != ast.Bool) {
			a.diags.Add(n.Line, "Operands of logical operator must both be bool, got %s and %s", lt, rt)
		}
		setType(n, resultOrUnknown(unknown, ast.Bool))
	case ast.Eq, ast.Neq:
		if !unknown && lt != rt {
			a.diags.Add(n.Line, "Operand types must match for == and !=, got %s and %s", lt, rt)
		}
		setType(n, resultOrUnknown(unknown, ast.Bool))
	}
}

func (a *analyzer) analyzeUnaryOp(n *ast.Node, scope *SymTab) {
	op := n.Data.(ast.BinOp)
	child := n.Children[0]
	a.analyzeExpr(child, scope)
	ct := child.Type()
	switch op {
	case ast.Neg:
		if ct != ast.Unknown && ct != ast.Int {
			a.diags.Add(n.Line, "Operand of unary '-' must be int, got %s", ct)
		}
		setType(n, resultOrUnknown(ct == ast.Unknown, ast.Int))
	case ast.Not:
		if ct != ast.Unknown && ct != ast.Bool {
			a.diags.Add(n.Line, "Operand of unary '!' must be bool, got %s", ct)
		}
		setType(n, resultOrUnknown(ct == ast.Unknown, ast.Bool))
	}
}

func resultOrUnknown(unknown bool, t ast.Type) ast.Type {
	if unknown {
		return ast.Unknown
	}
	return t
}
