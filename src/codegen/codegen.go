// Package codegen implements C6: a visitor pass over the analyzed syntax
// tree that lowers each node to a fragment of the flat three-address IR
// (package ir), following spec.md §4.6's emission rules exactly. A prior
// frame-layout pass assigns every symbol its storage class and offset, the
// precondition C6 requires before a single instruction is emitted.
//
// Grounded on the teacher's ir/validate.go tree-walking style (one function
// per node kind, switched on n.Kind) and on the calling-convention and
// operand layout of original_source/p4-codegen/src/p4-codegen.c — vslc's own
// code generator targets LIR Value objects and real machine backends
// (arm/riscv), a different IR shape than the flat three-address list this
// spec calls for, so the walk here is new, in the teacher's idiom.
package codegen

import (
	"minic/src/ast"
	"minic/src/ir"
	"minic/src/sema"
	"minic/src/util"
)

const attrCode = "code"
const attrTempReg = "temp_reg"
const attrLocalSize = "localSize"
const attrEpilogue = "epilogue"
const skipLoadKey = "_skip_load_once"

// generator carries the per-function state the code generator's visit needs:
// a register/label Labeler, the function's epilogue label, and a stack of
// (check, end) label pairs for the loops currently being walked (spec.md
// §4.6 WhileLoop/break/continue). loopStack is a util.Stack rather than a
// bare slice, the same LIFO helper the teacher keeps for its own scope/label
// stacks (vslc src/util/stack.go), sequential here per spec.md §5.
type generator struct {
	lbl       *util.Labeler
	epilogue  string
	loopStack util.Stack
}

type loopLabels struct {
	check, end string
}

// Generate lowers root (an analyzed Program node) to a single IR program:
// the concatenation of each function's code, in declaration order (spec.md
// §4.6 "Program").
func Generate(root *ast.Node) *ir.List {
	layoutGlobals(root)
	prog := root.Data.(ast.ProgramData)
	out := &ir.List{}
	for _, fn := range prog.Functions {
		layoutFrame(fn)
		g := &generator{lbl: &util.Labeler{}}
		out.Concat(g.genFuncDecl(fn))
	}
	return out
}

// ----------------------------
// ----- Frame layout ----------
// ----------------------------

// layoutGlobals assigns STATIC storage and an absolute offset to every
// global symbol, in declaration order (spec.md §4.6 "Frame model").
func layoutGlobals(root *ast.Node) {
	global, _ := sema.SymTabOf(root)
	offset := 0
	for _, sym := range global.Symbols() {
		if sym.Kind == sema.Function {
			continue
		}
		sym.Storage = sema.Static
		sym.Offset = offset
		offset += sym.Length * elemSize(sym)
	}
}

func elemSize(sym *sema.Symbol) int {
	if sym.Typ == ast.Bool {
		return ir.BoolElemSize
	}
	return ir.WordSize
}

// layoutFrame assigns STACK_PARAM offsets (positive, from frame base) to a
// function's parameters and STACK_LOCAL offsets (negative) to its locals,
// then records the resulting frame size as the FuncDecl's "localSize"
// attribute (spec.md §4.6 "Frame model").
func layoutFrame(fn *ast.Node) {
	fnScope, _ := sema.SymTabOf(fn)
	paramOffset := 2 * ir.WordSize // skip the saved return address and base pointer
	for _, sym := range fnScope.Symbols() {
		sym.Storage = sema.StackParam
		sym.Offset = paramOffset
		paramOffset += ir.WordSize
	}

	body := fn.Children[len(fn.Children)-1]
	localSize := 0
	layoutBlockLocals(body, &localSize)
	fn.SetAttr(attrLocalSize, localSize)
}

// layoutBlockLocals walks block and every nested block, assigning each local
// symbol a STACK_LOCAL offset and growing localSize by its footprint.
func layoutBlockLocals(block *ast.Node, localSize *int) {
	scope, _ := sema.SymTabOf(block)
	for _, sym := range scope.Symbols() {
		*localSize += sym.Length * elemSize(sym)
		sym.Storage = sema.StackLocal
		sym.Offset = -*localSize
	}
	data := block.Data.(ast.BlockData)
	for _, stmt := range block.Children[data.NumDecls:] {
		switch stmt.Kind {
		case ast.Conditional:
			layoutBlockLocals(stmt.Children[1], localSize)
			if len(stmt.Children) == 3 {
				layoutBlockLocals(stmt.Children[2], localSize)
			}
		case ast.WhileLoop:
			layoutBlockLocals(stmt.Children[1], localSize)
		}
	}
}

// ----------------------------
// ----- FuncDecl / Block ------
// ----------------------------

// genFuncDecl emits a function label, prologue, body and epilogue (spec.md
// §4.6 "FuncDecl").
func (g *generator) genFuncDecl(fn *ast.Node) *ir.List {
	data := fn.Data.(ast.FuncDeclData)
	localSize, _ := fn.Attr(attrLocalSize)
	g.epilogue = g.lbl.NewLabel(util.LabelJump)
	fn.SetAttr(attrEpilogue, g.epilogue)

	out := &ir.List{}
	out.Emit(ir.LABEL, ir.Lbl(data.Name))
	out.Emit(ir.PUSH, ir.Base())
	out.Emit(ir.I2I, ir.StackPtr(), ir.Base())
	out.Emit(ir.ADD_I, ir.StackPtr(), ir.IConst(-localSize.(int)), ir.StackPtr())

	body := fn.Children[len(fn.Children)-1]
	out.Concat(g.genBlock(body))

	out.Emit(ir.LABEL, ir.Lbl(g.epilogue))
	out.Emit(ir.I2I, ir.Base(), ir.StackPtr())
	out.Emit(ir.POP, ir.Base())
	out.Emit(ir.RETURN)
	return out
}

func (g *generator) genBlock(block *ast.Node) *ir.List {
	out := &ir.List{}
	data := block.Data.(ast.BlockData)
	for _, stmt := range block.Children[data.NumDecls:] {
		out.Concat(g.genStatement(stmt))
	}
	return out
}

// ----------------------------
// ----- Statements ------------
// ----------------------------

func (g *generator) genStatement(stmt *ast.Node) *ir.List {
	switch stmt.Kind {
	case ast.Assignment:
		return g.genAssignment(stmt)
	case ast.Conditional:
		return g.genConditional(stmt)
	case ast.WhileLoop:
		return g.genWhileLoop(stmt)
	case ast.Return:
		return g.genReturn(stmt)
	case ast.Break:
		out := &ir.List{}
		out.Emit(ir.JUMP, ir.Lbl(g.loopStack.Peek().(loopLabels).end))
		return out
	case ast.Continue:
		out := &ir.List{}
		out.Emit(ir.JUMP, ir.Lbl(g.loopStack.Peek().(loopLabels).check))
		return out
	case ast.FuncCall:
		out, _ := g.genFuncCall(stmt)
		return out
	}
	return &ir.List{}
}

// genAssignment suppresses the target Location's default rvalue load (a
// one-shot flag keyed to the node, spec.md §4.6 "Assignment"), evaluates the
// value, then stores it to the target's address.
func (g *generator) genAssignment(stmt *ast.Node) *ir.List {
	loc, val := stmt.Children[0], stmt.Children[1]
	loc.SetAttr(skipLoadKey, true)

	out := &ir.List{}
	idxOffset := g.genLocationAddress(out, loc)
	valCode, valReg := g.genExpr(val)
	out.Concat(valCode)

	sym, _ := sema.SymbolOf(loc)
	if sym.Kind == sema.Array {
		out.Emit(ir.STORE_AO, valReg, ir.Base(), idxOffset)
	} else {
		out.Emit(ir.STORE_AI, valReg, ir.Base(), ir.IConst(sym.Offset))
	}
	return out
}

func (g *generator) genConditional(stmt *ast.Node) *ir.List {
	cond := stmt.Children[0]
	out := &ir.List{}
	condCode, condReg := g.genExpr(cond)
	out.Concat(condCode)

	thenLbl := g.lbl.NewLabel(util.LabelIf)
	endLbl := g.lbl.NewLabel(util.LabelIfEnd)
	if len(stmt.Children) == 2 {
		out.Emit(ir.CBR, condReg, ir.Lbl(thenLbl), ir.Lbl(endLbl))
		out.Emit(ir.LABEL, ir.Lbl(thenLbl))
		out.Concat(g.genBlock(stmt.Children[1]))
		out.Emit(ir.LABEL, ir.Lbl(endLbl))
		return out
	}
	elseLbl := g.lbl.NewLabel(util.LabelIfElse)
	out.Emit(ir.CBR, condReg, ir.Lbl(thenLbl), ir.Lbl(elseLbl))
	out.Emit(ir.LABEL, ir.Lbl(thenLbl))
	out.Concat(g.genBlock(stmt.Children[1]))
	out.Emit(ir.JUMP, ir.Lbl(endLbl))
	out.Emit(ir.LABEL, ir.Lbl(elseLbl))
	out.Concat(g.genBlock(stmt.Children[2]))
	out.Emit(ir.LABEL, ir.Lbl(endLbl))
	return out
}

func (g *generator) genWhileLoop(stmt *ast.Node) *ir.List {
	checkLbl := g.lbl.NewLabel(util.LabelWhileHead)
	bodyLbl := g.lbl.NewLabel(util.LabelIf)
	endLbl := g.lbl.NewLabel(util.LabelWhileEnd)
	g.loopStack.Push(loopLabels{check: checkLbl, end: endLbl})

	out := &ir.List{}
	out.Emit(ir.LABEL, ir.Lbl(checkLbl))
	condCode, condReg := g.genExpr(stmt.Children[0])
	out.Concat(condCode)
	out.Emit(ir.CBR, condReg, ir.Lbl(bodyLbl), ir.Lbl(endLbl))
	out.Emit(ir.LABEL, ir.Lbl(bodyLbl))
	out.Concat(g.genBlock(stmt.Children[1]))
	out.Emit(ir.JUMP, ir.Lbl(checkLbl))
	out.Emit(ir.LABEL, ir.Lbl(endLbl))

	g.loopStack.Pop()
	return out
}

func (g *generator) genReturn(stmt *ast.Node) *ir.List {
	out := &ir.List{}
	if len(stmt.Children) == 1 {
		valCode, valReg := g.genExpr(stmt.Children[0])
		out.Concat(valCode)
		out.Emit(ir.I2I, valReg, ir.ReturnReg())
	}
	out.Emit(ir.JUMP, ir.Lbl(g.epilogue))
	return out
}

// ----------------------------
// ----- Expressions ------------
// ----------------------------

// genExpr lowers an expression node, returning its code and the operand
// holding its result (spec.md §4.6: each expression node's "temp_reg").
func (g *generator) genExpr(n *ast.Node) (*ir.List, ir.Operand) {
	switch n.Kind {
	case ast.Literal:
		return g.genLiteral(n)
	case ast.Location:
		return g.genLocationValue(n)
	case ast.BinaryOp:
		return g.genBinaryOp(n)
	case ast.UnaryOp:
		return g.genUnaryOp(n)
	case ast.FuncCall:
		return g.genFuncCall(n)
	}
	return &ir.List{}, ir.NoOperand()
}

func (g *generator) genLiteral(n *ast.Node) (*ir.List, ir.Operand) {
	ld := n.Data.(ast.LiteralData)
	out := &ir.List{}
	reg := ir.VReg(g.lbl.NewVirtualReg())
	switch ld.Typ {
	case ast.Bool:
		v := 0
		if ld.Bool {
			v = 1
		}
		out.Emit(ir.LOAD_I, ir.IConst(v), reg)
	default:
		out.Emit(ir.LOAD_I, ir.IConst(ld.Int), reg)
	}
	n.SetAttr(attrTempReg, reg)
	return out, reg
}

// genLocationValue lowers a Location in rvalue position: scalars load at
// (base, offset); arrays compute a byte offset and load at (base, offset_reg)
// (spec.md §4.6 "Location (rvalue)"). A Location whose load was suppressed by
// an enclosing Assignment returns no code and an empty operand.
func (g *generator) genLocationValue(n *ast.Node) (*ir.List, ir.Operand) {
	if skip, _ := n.Attr(skipLoadKey); skip == true {
		return &ir.List{}, ir.NoOperand()
	}
	sym, _ := sema.SymbolOf(n)
	out := &ir.List{}
	reg := ir.VReg(g.lbl.NewVirtualReg())
	if sym.Kind == sema.Array {
		idxCode, idxOffset := g.genArrayByteOffset(n, sym)
		out.Concat(idxCode)
		out.Emit(ir.LOAD_AO, ir.Base(), idxOffset, reg)
	} else {
		out.Emit(ir.LOAD_AI, ir.Base(), ir.IConst(sym.Offset), reg)
	}
	n.SetAttr(attrTempReg, reg)
	return out, reg
}

// genLocationAddress lowers an array Location's index into a byte-offset
// operand for use by genAssignment's STORE_AO; for scalars it returns no
// code (the caller uses the symbol's static offset directly).
func (g *generator) genLocationAddress(out *ir.List, loc *ast.Node) ir.Operand {
	sym, _ := sema.SymbolOf(loc)
	if sym.Kind != sema.Array {
		return ir.NoOperand()
	}
	idxCode, idxOffset := g.genArrayByteOffset(loc, sym)
	out.Concat(idxCode)
	return idxOffset
}

// genArrayByteOffset lowers index * elem_size into a fresh register.
func (g *generator) genArrayByteOffset(loc *ast.Node, sym *sema.Symbol) (*ir.List, ir.Operand) {
	idx := loc.Children[0]
	idxCode, idxReg := g.genExpr(idx)
	out := &ir.List{}
	out.Concat(idxCode)
	offReg := ir.VReg(g.lbl.NewVirtualReg())
	out.Emit(ir.MULT_I, idxReg, ir.IConst(elemSize(sym)), offReg)
	return out, offReg
}

// genBinaryOp emits left then right, then the operator; % lowers to
// q = l/r; p = q*r; result = l-p, three fresh registers in that deterministic
// order (spec.md §4.6 "BinaryOp").
func (g *generator) genBinaryOp(n *ast.Node) (*ir.List, ir.Operand) {
	op := n.Data.(ast.BinOp)
	left, right := n.Children[0], n.Children[1]
	out := &ir.List{}
	lcode, lreg := g.genExpr(left)
	rcode, rreg := g.genExpr(right)
	out.Concat(lcode)
	out.Concat(rcode)

	if op == ast.Mod {
		q := ir.VReg(g.lbl.NewVirtualReg())
		p := ir.VReg(g.lbl.NewVirtualReg())
		result := ir.VReg(g.lbl.NewVirtualReg())
		out.Emit(ir.DIV, lreg, rreg, q)
		out.Emit(ir.MULT, q, rreg, p)
		out.Emit(ir.SUB, lreg, p, result)
		n.SetAttr(attrTempReg, result)
		return out, result
	}

	result := ir.VReg(g.lbl.NewVirtualReg())
	opcode, ok := binOpcode[op]
	if ok {
		out.Emit(opcode, lreg, rreg, result)
	}
	n.SetAttr(attrTempReg, result)
	return out, result
}

var binOpcode = map[ast.BinOp]ir.Opcode{
	ast.Add: ir.ADD,
	ast.Sub: ir.SUB,
	ast.Mul: ir.MULT,
	ast.Div: ir.DIV,
	ast.And: ir.AND,
	ast.Or:  ir.OR,
	ast.Eq:  ir.CMP_EQ,
	ast.Neq: ir.CMP_NE,
	ast.Lt:  ir.CMP_LT,
	ast.Le:  ir.CMP_LE,
	ast.Gt:  ir.CMP_GT,
	ast.Ge:  ir.CMP_GE,
}

// genUnaryOp emits the child, then (child -> fresh) NEG or NOT (spec.md §4.6
// "UnaryOp").
func (g *generator) genUnaryOp(n *ast.Node) (*ir.List, ir.Operand) {
	op := n.Data.(ast.BinOp)
	child := n.Children[0]
	out, creg := g.genExpr(child)
	result := ir.VReg(g.lbl.NewVirtualReg())
	if op == ast.Not {
		out.Emit(ir.NOT, creg, result)
	} else {
		out.Emit(ir.NEG, creg, result)
	}
	n.SetAttr(attrTempReg, result)
	return out, result
}

// builtinPrintOp maps the compiler intrinsics to a single PRINT instruction
// on their evaluated argument (spec.md §4.6 "FuncCall").
var builtinPrintOp = map[string]bool{"print_int": true, "print_bool": true, "print_str": true}

// genFuncCall evaluates arguments in source order, pushes them right-to-left,
// emits the call and the canonical stack-adjust, and materialises the return
// value if the callee is non-void (spec.md §4.6 "FuncCall").
func (g *generator) genFuncCall(n *ast.Node) (*ir.List, ir.Operand) {
	fd := n.Data.(ast.FuncCallData)
	out := &ir.List{}

	if builtinPrintOp[fd.Callee] {
		if fd.Callee == "print_str" {
			ld := n.Children[0].Data.(ast.LiteralData)
			out.Emit(ir.PRINT, ir.SConst(ld.String))
			return out, ir.NoOperand()
		}
		argCode, argReg := g.genExpr(n.Children[0])
		out.Concat(argCode)
		out.Emit(ir.PRINT, argReg)
		return out, ir.NoOperand()
	}

	argRegs := make([]ir.Operand, len(n.Children))
	for i, arg := range n.Children {
		argCode, argReg := g.genExpr(arg)
		out.Concat(argCode)
		argRegs[i] = argReg
	}
	for i := len(argRegs) - 1; i >= 0; i-- {
		out.Emit(ir.PUSH, argRegs[i])
	}
	out.Emit(ir.CALL, ir.CallLbl(fd.Callee))
	out.Emit(ir.ADD_I, ir.StackPtr(), ir.IConst(ir.WordSize*len(argRegs)), ir.StackPtr())

	sym, _ := sema.SymbolOf(n)
	if sym != nil && sym.Typ != ast.Void {
		result := ir.VReg(g.lbl.NewVirtualReg())
		out.Emit(ir.I2I, ir.ReturnReg(), result)
		n.SetAttr(attrTempReg, result)
		return out, result
	}
	return out, ir.NoOperand()
}
