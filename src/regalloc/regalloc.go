// Package regalloc implements C7: a bottom-up linear-scan register allocator
// with next-use-distance spill selection, rewriting every virtual-register
// IR operand to a physical register and inserting spill stores / reload
// loads where the budget of K physical registers is exceeded.
//
// The algorithm is ported directly from original_source/p5-regalloc/src/
// p5-regalloc.c (ensure/allocate/spill/distance), the reference compiler's
// own register allocator — a closer match to spec.md §4.7 than the
// teacher's graph-coloring allocator (vslc src/backend/lir/regalloc.go),
// which solves a different problem (interference-graph coloring across a
// whole function) rather than this single forward pass with lookahead.
// Structurally this keeps the teacher's idiom of a rewrite loop over
// an instruction list and a small struct of mutable allocator state, just
// built around ensure/allocate/spill/distance instead of graph coloring.
package regalloc

import (
	"fmt"

	"minic/src/ir"
)

const invalidVR = -1
const invalidOffset = -1

// state carries the allocator's mutable bookkeeping across the single
// forward pass over the instruction list (spec.md §4.7 "State").
type state struct {
	k              int
	name           []int         // name[pr] = vr currently held, or invalidVR
	spillOffset    map[int]int    // vr -> bp-relative offset, or absent if not spilled
	localAllocator *ir.Instr      // current function's frame-adjust instruction
	prevInsn       *ir.Instr
	wordSize       int
}

// Allocate rewrites every virtual-register operand in list to one of k
// physical registers, in place, inserting spill stores and reload loads as
// needed (spec.md §4.7). list must contain only validated, codegen-emitted
// IR; a virtual-register operand that survives allocation is an internal
// invariant violation and panics (spec.md §7).
func Allocate(list *ir.List, k int) {
	if list == nil || list.Head == nil {
		return
	}
	s := &state{
		k:           k,
		name:        make([]int, k),
		spillOffset: make(map[int]int),
		wordSize:    ir.WordSize,
	}
	for i := range s.name {
		s.name[i] = invalidVR
	}

	for insn := list.Head; insn != nil; insn = insn.Next {
		if insn.Op == ir.LABEL {
			if la := frameAdjustAfter(insn); la != nil {
				s.localAllocator = la
			}
		}

		for _, rp := range readOperandPtrs(insn) {
			if !rp.IsVirtual() {
				continue
			}
			vr := rp.Reg
			pr := s.ensure(vr, list, insn)
			*rp = ir.PReg(pr)
			if distance(vr, insn) == infDist {
				s.name[pr] = invalidVR
			}
		}

		if wp := writeOperandPtr(insn); wp != nil && wp.IsVirtual() {
			vr := wp.Reg
			pr := s.allocate(vr, list, insn)
			*wp = ir.PReg(pr)
		}

		if insn.Op == ir.CALL {
			for pr := 0; pr < s.k; pr++ {
				if s.name[pr] != invalidVR {
					s.spill(pr, list, insn)
				}
			}
		}

		s.prevInsn = insn
	}

	assertNoVirtualRegisters(list)
}

// ensure returns the physical register currently holding vr, allocating and
// reloading it from its spill slot if necessary (spec.md §4.7 step 2a).
func (s *state) ensure(vr int, list *ir.List, insn *ir.Instr) int {
	for pr := 0; pr < s.k; pr++ {
		if s.name[pr] == vr {
			return pr
		}
	}
	pr := s.allocate(vr, list, insn)
	if off, spilled := s.spillOffset[vr]; spilled {
		s.insertLoad(off, pr, list)
		delete(s.spillOffset, vr)
	}
	return pr
}

// allocate claims a free physical register for vr, or spills the register
// whose held value has the farthest next use (spec.md §4.7 "allocate(vr)").
func (s *state) allocate(vr int, list *ir.List, insn *ir.Instr) int {
	for pr := 0; pr < s.k; pr++ {
		if s.name[pr] == invalidVR {
			s.name[pr] = vr
			return pr
		}
	}
	farthestPR, farthestDist := -1, -1
	for pr := 0; pr < s.k; pr++ {
		d := distance(s.name[pr], insn)
		if d > farthestDist {
			farthestDist = d
			farthestPR = pr
		}
	}
	s.spill(farthestPR, list, insn)
	s.name[farthestPR] = vr
	return farthestPR
}

// spill stores pr's current value to a freshly grown stack slot (spec.md
// §4.7 "spill(pr)").
func (s *state) spill(pr int, list *ir.List, insn *ir.Instr) {
	vr := s.name[pr]
	off := s.insertSpill(pr, list)
	s.spillOffset[vr] = off
	s.name[pr] = invalidVR
}

// insertSpill grows the current function's frame by one word and inserts a
// store of pr to the new slot immediately after prevInsn.
func (s *state) insertSpill(pr int, list *ir.List) int {
	bpOffset := s.localAllocator.Op1.Int - s.wordSize
	s.localAllocator.Op1 = ir.IConst(bpOffset)
	store := ir.New(ir.STORE_AI, ir.PReg(pr), ir.Base(), ir.IConst(bpOffset))
	list.InsertAfter(s.prevInsn, store)
	s.prevInsn = store
	return bpOffset
}

// insertLoad inserts a reload of the value at bpOffset into pr immediately
// after prevInsn.
func (s *state) insertLoad(bpOffset, pr int, list *ir.List) {
	load := ir.New(ir.LOAD_AI, ir.Base(), ir.IConst(bpOffset), ir.PReg(pr))
	list.InsertAfter(s.prevInsn, load)
	s.prevInsn = load
}

const infDist = int(^uint(0) >> 1) // INT_MAX equivalent

// distance walks forward from insn, returning the number of steps until vr
// is next read, infDist if vr is overwritten first, and infDist if the list
// ends without a read (spec.md §4.7 "distance(vr, from)").
func distance(vr int, insn *ir.Instr) int {
	dist := 0
	for cur := insn.Next; cur != nil; cur = cur.Next {
		for _, rp := range readOperandPtrs(cur) {
			if rp.IsVirtual() && rp.Reg == vr {
				return dist
			}
		}
		if wp := writeOperandPtr(cur); wp != nil && wp.IsVirtual() && wp.Reg == vr {
			return infDist
		}
		dist++
	}
	return infDist
}

// frameAdjustAfter returns the prologue's frame-adjust instruction if insn
// is a function-begin LABEL — the third instruction following it, matching
// "stack <- stack + <imm> -> stack" (spec.md §4.7 step 1).
func frameAdjustAfter(insn *ir.Instr) *ir.Instr {
	if insn.Next == nil || insn.Next.Next == nil || insn.Next.Next.Next == nil {
		return nil
	}
	candidate := insn.Next.Next.Next
	if candidate.Op == ir.ADD_I &&
		candidate.Op0.Kind == ir.StackRegister &&
		candidate.Op1.Kind == ir.IntConst &&
		candidate.Op2.Kind == ir.StackRegister {
		return candidate
	}
	return nil
}

// assertNoVirtualRegisters is the post-condition debug check spec.md §7
// calls for: the allocator must never leave a virtual-register operand
// behind.
func assertNoVirtualRegisters(list *ir.List) {
	for insn := list.Head; insn != nil; insn = insn.Next {
		for _, op := range []ir.Operand{insn.Op0, insn.Op1, insn.Op2} {
			if op.IsVirtual() {
				panic(fmt.Sprintf("internal error: virtual register t%d survived allocation in %s", op.Reg, insn.Op))
			}
		}
	}
}

// ----------------------------
// ----- Operand classification -
// ----------------------------

// readOperandPtrs returns pointers to insn's read operand slots, so the
// allocator can rewrite them in place. Classification follows the operand
// layout codegen emits for each opcode (spec.md §6 "IR opcode set").
func readOperandPtrs(insn *ir.Instr) []*ir.Operand {
	switch insn.Op {
	case ir.LOAD_AI:
		return []*ir.Operand{&insn.Op0}
	case ir.LOAD_AO:
		return []*ir.Operand{&insn.Op0, &insn.Op1}
	case ir.STORE_AI:
		return []*ir.Operand{&insn.Op0, &insn.Op1}
	case ir.STORE_AO:
		return []*ir.Operand{&insn.Op0, &insn.Op1, &insn.Op2}
	case ir.I2I:
		return []*ir.Operand{&insn.Op0}
	case ir.ADD, ir.SUB, ir.MULT, ir.DIV, ir.AND, ir.OR,
		ir.CMP_EQ, ir.CMP_NE, ir.CMP_LT, ir.CMP_LE, ir.CMP_GT, ir.CMP_GE:
		return []*ir.Operand{&insn.Op0, &insn.Op1}
	case ir.ADD_I, ir.MULT_I:
		return []*ir.Operand{&insn.Op0}
	case ir.NEG, ir.NOT:
		return []*ir.Operand{&insn.Op0}
	case ir.CBR:
		return []*ir.Operand{&insn.Op0}
	case ir.PUSH:
		return []*ir.Operand{&insn.Op0}
	case ir.PRINT:
		return []*ir.Operand{&insn.Op0}
	default:
		return nil
	}
}

// writeOperandPtr returns a pointer to insn's write operand slot, or nil.
func writeOperandPtr(insn *ir.Instr) *ir.Operand {
	switch insn.Op {
	case ir.LOAD_I:
		return &insn.Op1
	case ir.LOAD_AI, ir.LOAD_AO:
		return &insn.Op2
	case ir.I2I:
		return &insn.Op1
	case ir.ADD, ir.SUB, ir.MULT, ir.DIV, ir.AND, ir.OR,
		ir.CMP_EQ, ir.CMP_NE, ir.CMP_LT, ir.CMP_LE, ir.CMP_GT, ir.CMP_GE:
		return &insn.Op2
	case ir.ADD_I, ir.MULT_I:
		return &insn.Op2
	case ir.NEG, ir.NOT:
		return &insn.Op1
	default:
		return nil
	}
}
