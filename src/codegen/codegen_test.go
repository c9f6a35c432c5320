package codegen

import (
	"testing"

	"minic/src/frontend"
	"minic/src/ir"
	"minic/src/sema"
)

func compile(t *testing.T, src string) []*ir.Instr {
	t.Helper()
	root, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	if d := sema.Analyze(root); d.Len() != 0 {
		t.Fatalf("unexpected semantic diagnostics: %v", d.Entries())
	}
	return Generate(root).Slice()
}

func opcodes(instrs []*ir.Instr) []ir.Opcode {
	out := make([]ir.Opcode, len(instrs))
	for i, ins := range instrs {
		out[i] = ins.Op
	}
	return out
}

func eqOpcodes(got []ir.Opcode, want ...ir.Opcode) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// TestGenerateS1 matches spec.md's S1 scenario: a function that immediately
// returns a constant emits a prologue, an immediate load into the return
// register, and a jump to the epilogue, then the epilogue proper.
func TestGenerateS1(t *testing.T) {
	instrs := compile(t, `def int main() { return 0; }`)
	want := []ir.Opcode{
		ir.LABEL, ir.PUSH, ir.I2I, ir.ADD_I,
		ir.LOAD_I, ir.I2I, ir.JUMP,
		ir.LABEL, ir.I2I, ir.POP, ir.RETURN,
	}
	if got := opcodes(instrs); !eqOpcodes(got, want...) {
		t.Fatalf("unexpected opcode sequence: %v", got)
	}
}

// TestFrameBalance checks property 6: every function's prologue/epilogue
// pair is present and matched.
func TestFrameBalance(t *testing.T) {
	instrs := compile(t, `def int f(int a, int b) { return a+b; }
def int main() { return f(1, 2); }
`)
	pushBase, popBase := 0, 0
	for _, ins := range instrs {
		if ins.Op == ir.PUSH && ins.Op0.Kind == ir.BaseRegister {
			pushBase++
		}
		if ins.Op == ir.POP && ins.Op0.Kind == ir.BaseRegister {
			popBase++
		}
	}
	if pushBase != 2 || popBase != 2 {
		t.Fatalf("expected 2 prologues and 2 epilogues, got push=%d pop=%d", pushBase, popBase)
	}
}

// TestGenerateCallConvention matches spec.md's S4 scenario: arguments are
// pushed right-to-left and the caller cleans up the stack unconditionally.
func TestGenerateCallConvention(t *testing.T) {
	instrs := compile(t, `def int f(int a, int b) { return a+b; }
def int main() { return f(1, 2); }
`)
	// Map each virtual register to the constant loaded into it, so the
	// argument pushes can be read back as the values 1 and 2.
	consts := make(map[int]int)
	var pushes []int
	var sawCall, sawAdjust bool
	for _, ins := range instrs {
		if ins.Op == ir.LOAD_I && ins.Op1.IsVirtual() {
			consts[ins.Op1.Reg] = ins.Op0.Int
		}
		if ins.Op == ir.PUSH && ins.Op0.IsVirtual() {
			pushes = append(pushes, consts[ins.Op0.Reg])
		}
		if ins.Op == ir.CALL {
			sawCall = true
		}
		if sawCall && !sawAdjust && ins.Op == ir.ADD_I && ins.Op1.Int == ir.WordSize*2 {
			sawAdjust = true
		}
	}
	if len(pushes) != 2 || pushes[0] != 2 || pushes[1] != 1 {
		t.Fatalf("expected push order [2, 1], got %v", pushes)
	}
	if !sawCall || !sawAdjust {
		t.Fatalf("expected a CALL followed by a stack-adjusting ADD_I of %d", ir.WordSize*2)
	}
}

// TestGenerateModuloLowering checks spec.md §4.6's three-register modulo
// lowering: q = l/r; p = q*r; result = l-p.
func TestGenerateModuloLowering(t *testing.T) {
	instrs := compile(t, `def int main() { return 7 % 3; }`)
	var seenDiv, seenMult, seenSub bool
	for _, ins := range instrs {
		switch ins.Op {
		case ir.DIV:
			seenDiv = true
		case ir.MULT:
			seenMult = true
		case ir.SUB:
			seenSub = true
		}
	}
	if !seenDiv || !seenMult || !seenSub {
		t.Fatalf("expected DIV, MULT and SUB for modulo lowering, got %v", opcodes(instrs))
	}
}

// TestGenerateWhileLoopLabels checks that a while loop's lowering emits a CBR
// for the loop condition and a JUMP. The program contains no break or
// continue, so their jump targets are not checked here.
func TestGenerateWhileLoopLabels(t *testing.T) {
	instrs := compile(t, `def int main() {
	int i;
	i = 0;
	while (i < 3) {
		i = i + 1;
	}
	return i;
}
`)
	var sawCBR, sawJumpBack bool
	for _, ins := range instrs {
		if ins.Op == ir.CBR {
			sawCBR = true
		}
		if ins.Op == ir.JUMP {
			sawJumpBack = true
		}
	}
	if !sawCBR || !sawJumpBack {
		t.Fatalf("expected a CBR and a JUMP in the loop's lowering, got %v", opcodes(instrs))
	}
}

// TestGenerateArrayStore checks that an indexed store computes a byte
// offset and uses STORE_AO rather than the scalar STORE_AI form.
func TestGenerateArrayStore(t *testing.T) {
	instrs := compile(t, `int nums[4];
def void fill() {
	nums[0] = 1;
}
def int main() {
	fill();
	return 0;
}
`)
	var sawMultI, sawStoreAO bool
	for _, ins := range instrs {
		if ins.Op == ir.MULT_I {
			sawMultI = true
		}
		if ins.Op == ir.STORE_AO {
			sawStoreAO = true
		}
	}
	if !sawMultI || !sawStoreAO {
		t.Fatalf("expected MULT_I byte-offset computation and STORE_AO, got %v", opcodes(instrs))
	}
}
