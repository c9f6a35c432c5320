package frontend

import (
	"testing"

	"minic/src/ast"
)

func TestParseBasicProgram(t *testing.T) {
	src := `int total;
def int add(int a, int b) {
	return a + b;
}
def int main() {
	total = add(1, 2);
	return total;
}
`
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	prog := root.Data.(ast.ProgramData)
	if len(prog.Globals) != 1 {
		t.Fatalf("expected 1 global, got %d", len(prog.Globals))
	}
	if len(prog.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(prog.Functions))
	}
	add := prog.Functions[0].Data.(ast.FuncDeclData)
	if add.Name != "add" || add.ReturnType != ast.Int {
		t.Errorf("unexpected add() decl: %+v", add)
	}
	if len(prog.Functions[0].Children) != 3 { // 2 params + body
		t.Fatalf("expected 2 params + body, got %d children", len(prog.Functions[0].Children))
	}
	body := prog.Functions[0].Children[2]
	if body.Kind != ast.Block {
		t.Fatalf("expected Block as last child, got %s", body.Kind)
	}
}

func TestParseArrayDeclAndIndex(t *testing.T) {
	src := `int nums[10];
def void fill() {
	nums[0] = 1;
}
`
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	prog := root.Data.(ast.ProgramData)
	vd := prog.Globals[0].Data.(ast.VarDeclData)
	if !vd.IsArray || vd.Length != 10 {
		t.Errorf("expected array of length 10, got %+v", vd)
	}
	fill := prog.Functions[0]
	body := fill.Children[0]
	assign := body.Children[0]
	if assign.Kind != ast.Assignment {
		t.Fatalf("expected Assignment, got %s", assign.Kind)
	}
	loc := assign.Children[0]
	if loc.Kind != ast.Location || len(loc.Children) != 1 {
		t.Fatalf("expected Location with index child, got %+v", loc)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	src := `def int main() {
	return 1 + 2 * 3 == 7 && true || false;
}
`
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	prog := root.Data.(ast.ProgramData)
	body := prog.Functions[0].Children[0]
	ret := body.Children[0]
	if ret.Kind != ast.Return {
		t.Fatalf("expected Return, got %s", ret.Kind)
	}
	top := ret.Children[0]
	if top.Kind != ast.BinaryOp || top.Data.(ast.BinOp) != ast.Or {
		t.Fatalf("expected top-level Or, got %v", top)
	}
}

func TestParseIfElseAndWhile(t *testing.T) {
	src := `def void loop() {
	while (true) {
		if (1 < 2) {
			break;
		} else {
			continue;
		}
	}
}
`
	if _, err := Parse(src); err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
}

func TestParseErrorFormat(t *testing.T) {
	_, err := Parse(`def int main() {
	return 1
}
`)
	if err == nil {
		t.Fatalf("expected parse error for missing semicolon")
	}
	want := `Expected ";" but found "}" on line 3`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestParseFuncCallStatement(t *testing.T) {
	src := `def void main() {
	foo(1, 2, 3);
}
`
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	prog := root.Data.(ast.ProgramData)
	body := prog.Functions[0].Children[0]
	call := body.Children[0]
	if call.Kind != ast.FuncCall {
		t.Fatalf("expected FuncCall statement, got %s", call.Kind)
	}
	if len(call.Children) != 3 {
		t.Errorf("expected 3 args, got %d", len(call.Children))
	}
}
