package ir

import "minic/src/util"

// Print renders list as text through w, one instruction per line, with LABEL
// opcodes written as bare label declarations and every other opcode indented
// (spec.md §1 places the pretty-printer itself out of scope as an external
// collaborator, but the driver still needs some textual form of its own IR
// to hand off, grounded on the teacher's Writer.Ins1/Ins2/Ins3/Label idiom).
func (l *List) Print(w *util.Writer) {
	for ins := l.Head; ins != nil; ins = ins.Next {
		if ins.Op == LABEL {
			w.Label(ins.Op0.String())
			continue
		}
		w.WriteString("\t" + ins.String() + "\n")
	}
}
