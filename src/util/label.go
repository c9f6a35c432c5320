// label.go generates unique assembly labels and virtual register/id names for
// the code generator. Sequential, unlike the teacher's
// channel-backed global label service (vslc src/util/label.go) — spec.md §5
// rules out concurrency, and each function in this compiler gets its own
// Labeler rather than sharing one process-wide generator, so two functions
// compiled in sequence never have to coordinate over a shared channel.
package util

import "fmt"

// Label classes used by the code generator for control flow (spec.md §4.6).
const (
	LabelWhileHead = iota
	LabelWhileEnd
	LabelIf
	LabelIfElse
	LabelIfEnd
	LabelJump
)

var labelPrefixes = [LabelJump + 1]string{
	"Lwhile_head",
	"Lwhile_end",
	"Lif",
	"Lif_else",
	"Lif_end",
	"Ljump",
}

// Labeler hands out unique labels and virtual register names within the
// scope of a single function's code generation pass.
type Labeler struct {
	labelIndices [LabelJump + 1]int
	regIndex     int
}

// NewLabel returns a new label of class typ, unique within this Labeler.
func (l *Labeler) NewLabel(typ int) string {
	if typ < 0 || typ >= len(l.labelIndices) {
		return "#LABEL_ERROR"
	}
	s := fmt.Sprintf("%s_%03d", labelPrefixes[typ], l.labelIndices[typ])
	l.labelIndices[typ]++
	return s
}

// NewVirtualReg returns the id of a fresh virtual register, unique within
// this Labeler.
func (l *Labeler) NewVirtualReg() int {
	id := l.regIndex
	l.regIndex++
	return id
}

// NewVirtualRegister returns the name of a fresh virtual register, e.g. "t0".
func (l *Labeler) NewVirtualRegister() string {
	return fmt.Sprintf("t%d", l.NewVirtualReg())
}
