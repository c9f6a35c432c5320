// parser.go implements C3: a recursive-descent, top-down, predictive parser
// over the Token stream produced by Lex, following the grammar in spec.md
// §4.3 exactly. Disambiguation between Location and FuncCall is by one-token
// lookahead after an identifier; disambiguation between VarDecl and FuncDecl
// at Program scope is by the leading 'def' keyword — both per §4.3.
//
// Structurally this mirrors the teacher's parser (vslc's goyacc grammar plus
// frontend/tree.go's node-building glue), but hand-written: spec.md is explicit
// that C3 is recursive descent, not an LALR parser generated from a .y file.
package frontend

import (
	"fmt"

	"minic/src/ast"
)

// ParseError is the single fatal diagnostic a parse failure returns (spec.md §4.3).
type ParseError struct {
	Expected string
	Found    string
	Line     int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Expected %s but found %s on line %d", e.Expected, e.Found, e.Line)
}

// parser holds the token stream and the current read position.
type parser struct {
	toks []Token
	pos  int
}

// Parse lexes and parses src in one call, returning the root Program node.
func Parse(src string) (*ast.Node, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

// ----------------------------
// ----- Token utilities -----
// ----------------------------

func (p *parser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: EOF, Line: p.line()}
	}
	return p.toks[p.pos]
}

func (p *parser) line() int {
	if len(p.toks) == 0 {
		return 1
	}
	if p.pos < len(p.toks) {
		return p.toks[p.pos].Line
	}
	return p.toks[len(p.toks)-1].Line
}

func (p *parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// describe renders a token for "found X" diagnostics.
func describe(t Token) string {
	if t.Kind == EOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.Text)
}

func (p *parser) errorf(expected string) error {
	return &ParseError{Expected: expected, Found: describe(p.cur()), Line: p.line()}
}

// expectSymbol consumes a SYMBOL token with exact text sym, or fails.
func (p *parser) expectSymbol(sym string) (Token, error) {
	t := p.cur()
	if t.Kind == SYMBOL && t.Text == sym {
		return p.advance(), nil
	}
	return Token{}, &ParseError{Expected: fmt.Sprintf("%q", sym), Found: describe(t), Line: p.line()}
}

// expectKeyword consumes a KEYWORD token with exact text kw, or fails.
func (p *parser) expectKeyword(kw string) (Token, error) {
	t := p.cur()
	if t.Kind == KEYWORD && t.Text == kw {
		return p.advance(), nil
	}
	return Token{}, &ParseError{Expected: fmt.Sprintf("%q", kw), Found: describe(t), Line: p.line()}
}

func (p *parser) expectID() (Token, error) {
	t := p.cur()
	if t.Kind == ID {
		return p.advance(), nil
	}
	return Token{}, &ParseError{Expected: "identifier", Found: describe(t), Line: p.line()}
}

func (p *parser) isSymbol(sym string) bool {
	t := p.cur()
	return t.Kind == SYMBOL && t.Text == sym
}

func (p *parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Kind == KEYWORD && t.Text == kw
}

// ----------------------------
// ----- Grammar: Program -----
// ----------------------------

func (p *parser) parseProgram() (*ast.Node, error) {
	line := p.line()
	data := ast.ProgramData{}
	for p.cur().Kind != EOF {
		if p.isKeyword("def") {
			fn, err := p.parseFuncDecl()
			if err != nil {
				return nil, err
			}
			data.Functions = append(data.Functions, fn)
		} else if p.isKeyword("int") || p.isKeyword("bool") || p.isKeyword("void") {
			vd, err := p.parseVarDecl()
			if err != nil {
				return nil, err
			}
			data.Globals = append(data.Globals, vd)
		} else {
			return nil, p.errorf("'def' or a type")
		}
	}
	return ast.New(ast.Program, line, data), nil
}

// parseType consumes one of 'int', 'bool', 'void'.
func (p *parser) parseType() (ast.Type, int, error) {
	t := p.cur()
	if t.Kind != KEYWORD {
		return ast.Unknown, t.Line, p.errorf("a type")
	}
	switch t.Text {
	case "int":
		p.advance()
		return ast.Int, t.Line, nil
	case "bool":
		p.advance()
		return ast.Bool, t.Line, nil
	case "void":
		p.advance()
		return ast.Void, t.Line, nil
	}
	return ast.Unknown, t.Line, p.errorf("a type")
}

// parseVarDecl parses "Type ID ('[' DECLIT ']')? ';'".
func (p *parser) parseVarDecl() (*ast.Node, error) {
	typ, line, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectID()
	if err != nil {
		return nil, err
	}
	data := ast.VarDeclData{Name: name.Text, Typ: typ, Length: 1}
	if p.isSymbol("[") {
		p.advance()
		lit := p.cur()
		if lit.Kind != DECIMAL_LIT {
			return nil, p.errorf("an array length literal")
		}
		n, convErr := parseDecimal(lit.Text)
		if convErr != nil || n <= 0 {
			return nil, &ParseError{Expected: "a positive array length literal", Found: describe(lit), Line: lit.Line}
		}
		p.advance()
		if _, err := p.expectSymbol("]"); err != nil {
			return nil, err
		}
		data.IsArray = true
		data.Length = n
	}
	if _, err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	return ast.New(ast.VarDecl, line, data), nil
}

// parseFuncDecl parses "'def' Type ID '(' Params? ')' Block".
func (p *parser) parseFuncDecl() (*ast.Node, error) {
	defTok, err := p.expectKeyword("def")
	if err != nil {
		return nil, err
	}
	typ, _, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectID()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var params []*ast.Node
	if !p.isSymbol(")") {
		for {
			ptyp, pline, err := p.parseType()
			if err != nil {
				return nil, err
			}
			pname, err := p.expectID()
			if err != nil {
				return nil, err
			}
			params = append(params, ast.New(ast.Param, pline, ast.ParamData{Name: pname.Text, Typ: ptyp}))
			if p.isSymbol(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	children := append(params, body)
	return ast.New(ast.FuncDecl, defTok.Line, ast.FuncDeclData{Name: name.Text, ReturnType: typ}, children...), nil
}

// parseBlock parses "'{' VarDecl* Statement* '}'".
func (p *parser) parseBlock() (*ast.Node, error) {
	open, err := p.expectSymbol("{")
	if err != nil {
		return nil, err
	}
	var decls, stmts []*ast.Node
	for p.isKeyword("int") || p.isKeyword("bool") || p.isKeyword("void") {
		vd, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, vd)
	}
	for !p.isSymbol("}") {
		if p.cur().Kind == EOF {
			return nil, p.errorf("'}'")
		}
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	if _, err := p.expectSymbol("}"); err != nil {
		return nil, err
	}
	children := append(decls, stmts...)
	return ast.New(ast.Block, open.Line, ast.BlockData{NumDecls: len(decls)}, children...), nil
}

// ----------------------------
// ----- Grammar: Statement ---
// ----------------------------

func (p *parser) parseStatement() (*ast.Node, error) {
	t := p.cur()
	switch {
	case t.Kind == KEYWORD && t.Text == "return":
		p.advance()
		var children []*ast.Node
		if !p.isSymbol(";") {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			children = append(children, e)
		}
		if _, err := p.expectSymbol(";"); err != nil {
			return nil, err
		}
		return ast.New(ast.Return, t.Line, nil, children...), nil
	case t.Kind == KEYWORD && t.Text == "break":
		p.advance()
		if _, err := p.expectSymbol(";"); err != nil {
			return nil, err
		}
		return ast.New(ast.Break, t.Line, nil), nil
	case t.Kind == KEYWORD && t.Text == "continue":
		p.advance()
		if _, err := p.expectSymbol(";"); err != nil {
			return nil, err
		}
		return ast.New(ast.Continue, t.Line, nil), nil
	case t.Kind == KEYWORD && t.Text == "if":
		return p.parseConditional()
	case t.Kind == KEYWORD && t.Text == "while":
		return p.parseWhile()
	case t.Kind == ID:
		return p.parseAssignmentOrCall()
	}
	return nil, p.errorf("a statement")
}

func (p *parser) parseConditional() (*ast.Node, error) {
	ifTok, _ := p.expectKeyword("if")
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	children := []*ast.Node{cond, thenBlock}
	if p.isKeyword("else") {
		p.advance()
		elseBlock, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		children = append(children, elseBlock)
	}
	return ast.New(ast.Conditional, ifTok.Line, nil, children...), nil
}

func (p *parser) parseWhile() (*ast.Node, error) {
	whileTok, _ := p.expectKeyword("while")
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.WhileLoop, whileTok.Line, nil, cond, body), nil
}

// parseAssignmentOrCall parses "Location '=' Expr ';'" or "FuncCall ';'",
// disambiguated by one-token lookahead after the identifier (spec.md §4.3).
func (p *parser) parseAssignmentOrCall() (*ast.Node, error) {
	id, err := p.expectID()
	if err != nil {
		return nil, err
	}
	if p.isSymbol("(") {
		call, err := p.finishFuncCall(id)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol(";"); err != nil {
			return nil, err
		}
		return call, nil
	}
	loc, err := p.finishLocation(id)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	return ast.New(ast.Assignment, id.Line, nil, loc, val), nil
}

func (p *parser) finishLocation(id Token) (*ast.Node, error) {
	var children []*ast.Node
	if p.isSymbol("[") {
		p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol("]"); err != nil {
			return nil, err
		}
		children = append(children, idx)
	}
	return ast.New(ast.Location, id.Line, ast.LocationData{Name: id.Text}, children...), nil
}

func (p *parser) finishFuncCall(id Token) (*ast.Node, error) {
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var args []*ast.Node
	if !p.isSymbol(")") {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.isSymbol(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return ast.New(ast.FuncCall, id.Line, ast.FuncCallData{Callee: id.Text}, args...), nil
}

// ----------------------------
// ----- Grammar: Expr ---------
// ----------------------------

// parseExpr is the precedence-climbing ladder's entry point (spec.md §4.3 Expr/OrExpr/...).
func (p *parser) parseExpr() (*ast.Node, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (*ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("||") {
		op := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.New(ast.BinaryOp, op.Line, ast.Or, left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (*ast.Node, error) {
	left, err := p.parseEq()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("&&") {
		op := p.advance()
		right, err := p.parseEq()
		if err != nil {
			return nil, err
		}
		left = ast.New(ast.BinaryOp, op.Line, ast.And, left, right)
	}
	return left, nil
}

func (p *parser) parseEq() (*ast.Node, error) {
	left, err := p.parseRel()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("==") || p.isSymbol("!=") {
		op := p.advance()
		right, err := p.parseRel()
		if err != nil {
			return nil, err
		}
		kind := ast.Eq
		if op.Text == "!=" {
			kind = ast.Neq
		}
		left = ast.New(ast.BinaryOp, op.Line, kind, left, right)
	}
	return left, nil
}

func (p *parser) parseRel() (*ast.Node, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("<") || p.isSymbol("<=") || p.isSymbol(">") || p.isSymbol(">=") {
		op := p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		var kind ast.BinOp
		switch op.Text {
		case "<":
			kind = ast.Lt
		case "<=":
			kind = ast.Le
		case ">":
			kind = ast.Gt
		case ">=":
			kind = ast.Ge
		}
		left = ast.New(ast.BinaryOp, op.Line, kind, left, right)
	}
	return left, nil
}

func (p *parser) parseAdd() (*ast.Node, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("+") || p.isSymbol("-") {
		op := p.advance()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		kind := ast.Add
		if op.Text == "-" {
			kind = ast.Sub
		}
		left = ast.New(ast.BinaryOp, op.Line, kind, left, right)
	}
	return left, nil
}

func (p *parser) parseMul() (*ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("*") || p.isSymbol("/") || p.isSymbol("%") {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		var kind ast.BinOp
		switch op.Text {
		case "*":
			kind = ast.Mul
		case "/":
			kind = ast.Div
		case "%":
			kind = ast.Mod
		}
		left = ast.New(ast.BinaryOp, op.Line, kind, left, right)
	}
	return left, nil
}

func (p *parser) parseUnary() (*ast.Node, error) {
	if p.isSymbol("-") || p.isSymbol("!") {
		op := p.advance()
		child, err := p.parseBase()
		if err != nil {
			return nil, err
		}
		kind := ast.Neg
		if op.Text == "!" {
			kind = ast.Not
		}
		return ast.New(ast.UnaryOp, op.Line, kind, child), nil
	}
	return p.parseBase()
}

func (p *parser) parseBase() (*ast.Node, error) {
	t := p.cur()
	switch {
	case t.Kind == SYMBOL && t.Text == "(":
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return e, nil
	case t.Kind == ID:
		id := p.advance()
		if p.isSymbol("(") {
			return p.finishFuncCall(id)
		}
		return p.finishLocation(id)
	case t.Kind == DECIMAL_LIT:
		p.advance()
		n, err := parseDecimal(t.Text)
		if err != nil {
			return nil, &ParseError{Expected: "a valid decimal literal", Found: describe(t), Line: t.Line}
		}
		return ast.New(ast.Literal, t.Line, ast.LiteralData{Typ: ast.Int, Int: n}), nil
	case t.Kind == HEX_LIT:
		p.advance()
		n, err := parseHex(t.Text)
		if err != nil {
			return nil, &ParseError{Expected: "a valid hex literal", Found: describe(t), Line: t.Line}
		}
		return ast.New(ast.Literal, t.Line, ast.LiteralData{Typ: ast.Int, Int: n}), nil
	case t.Kind == STRING_LIT:
		p.advance()
		return ast.New(ast.Literal, t.Line, ast.LiteralData{Typ: ast.Str, String: t.Text}), nil
	case t.Kind == KEYWORD && t.Text == "true":
		p.advance()
		return ast.New(ast.Literal, t.Line, ast.LiteralData{Typ: ast.Bool, Bool: true}), nil
	case t.Kind == KEYWORD && t.Text == "false":
		p.advance()
		return ast.New(ast.Literal, t.Line, ast.LiteralData{Typ: ast.Bool, Bool: false}), nil
	}
	return nil, p.errorf("an expression")
}

// parseDecimal and parseHex convert literal text to a machine int, matching
// the constant folding the teacher's tree.go does at parse time (parseInteger).
func parseDecimal(s string) (int, error) {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func parseHex(s string) (int, error) {
	n := 0
	for _, r := range s[2:] {
		var d int
		switch {
		case r >= '0' && r <= '9':
			d = int(r - '0')
		case r >= 'a' && r <= 'f':
			d = int(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = int(r-'A') + 10
		}
		n = n*16 + d
	}
	return n, nil
}
