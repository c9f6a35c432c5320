package sema

import (
	"strings"
	"testing"

	"minic/src/ast"
	"minic/src/frontend"
	"minic/src/util"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	root, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	return root
}

func diagStrings(diags []util.Diagnostic) []string {
	var ss []string
	for _, d := range diags {
		ss = append(ss, d.String())
	}
	return ss
}

func TestAnalyzeValidProgram(t *testing.T) {
	src := `int total;
def int add(int a, int b) {
	return a + b;
}
def int main() {
	total = add(1, 2);
	return total;
}
`
	root := mustParse(t, src)
	d := Analyze(root)
	if d.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %v", d.Entries())
	}
}

func TestAnalyzeUndefinedSymbol(t *testing.T) {
	root := mustParse(t, `def int main() {
	return missing;
}
`)
	d := Analyze(root)
	if d.Len() != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", d.Entries())
	}
	if !strings.Contains(d.Entries()[0].Message, "undefined") {
		t.Errorf("expected undefined-symbol diagnostic, got %q", d.Entries()[0].Message)
	}
}

func TestAnalyzeMissingMain(t *testing.T) {
	root := mustParse(t, `def int foo() {
	return 1;
}
`)
	d := Analyze(root)
	found := false
	for _, e := range d.Entries() {
		if strings.Contains(e.Message, "'main'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a missing-main diagnostic, got %v", diagStrings(d.Entries()))
	}
}

func TestAnalyzeTypeMismatchAssignment(t *testing.T) {
	root := mustParse(t, `def int main() {
	int x;
	bool y;
	x = y;
	return 0;
}
`)
	d := Analyze(root)
	found := false
	for _, e := range d.Entries() {
		if strings.Contains(e.Message, "Type mismatch") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a type-mismatch diagnostic, got %v", diagStrings(d.Entries()))
	}
}

func TestAnalyzeBreakOutsideLoop(t *testing.T) {
	root := mustParse(t, `def void main() {
	break;
}
`)
	d := Analyze(root)
	found := false
	for _, e := range d.Entries() {
		if strings.Contains(e.Message, "'break'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a break-outside-loop diagnostic, got %v", diagStrings(d.Entries()))
	}
}

func TestAnalyzeDuplicateSymbol(t *testing.T) {
	root := mustParse(t, `def void main() {
	int x;
	int x;
}
`)
	d := Analyze(root)
	found := false
	for _, e := range d.Entries() {
		if strings.Contains(e.Message, "Duplicate symbols") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a duplicate-symbol diagnostic, got %v", diagStrings(d.Entries()))
	}
}

// TestAnalyzeDuplicateSymbolReportedOnce checks that a name declared three
// times in one scope produces exactly one diagnostic, not two: every
// occurrence past the first is a duplicate of the same already-reported
// name, not a fresh one.
func TestAnalyzeDuplicateSymbolReportedOnce(t *testing.T) {
	root := mustParse(t, `def void main() {
	int x;
	int x;
	int x;
}
`)
	d := Analyze(root)
	count := 0
	for _, e := range d.Entries() {
		if strings.Contains(e.Message, "Duplicate symbols") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 duplicate-symbol diagnostic for 3 occurrences, got %d: %v", count, diagStrings(d.Entries()))
	}
}

func TestAnalyzeArrayIndexing(t *testing.T) {
	src := `int nums[10];
def void fill() {
	nums[0] = 1;
	nums = 2;
}
`
	root := mustParse(t, src)
	d := Analyze(root)
	joined := strings.Join(diagStrings(d.Entries()), "; ")
	if !strings.Contains(joined, "must be indexed") {
		t.Errorf("expected an indexing diagnostic, got %s", joined)
	}
}

func TestAnalyzeLocalArrayForbidden(t *testing.T) {
	root := mustParse(t, `def void main() {
	int nums[4];
}
`)
	d := Analyze(root)
	joined := strings.Join(diagStrings(d.Entries()), "; ")
	if !strings.Contains(joined, "global scope") {
		t.Errorf("expected a local-array diagnostic, got %s", joined)
	}
}

func TestAnalyzeReturnTypeMismatch(t *testing.T) {
	root := mustParse(t, `def void main() {
	return true;
}
`)
	d := Analyze(root)
	joined := strings.Join(diagStrings(d.Entries()), "; ")
	if !strings.Contains(joined, "cannot return a value") {
		t.Errorf("expected a void-return diagnostic, got %s", joined)
	}
}

func TestAnalyzeCallArityMismatch(t *testing.T) {
	root := mustParse(t, `def int add(int a, int b) {
	return a + b;
}
def int main() {
	return add(1);
}
`)
	d := Analyze(root)
	joined := strings.Join(diagStrings(d.Entries()), "; ")
	if !strings.Contains(joined, "expects 2 argument") {
		t.Errorf("expected an arity diagnostic, got %s", joined)
	}
}
