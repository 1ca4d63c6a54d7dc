package emit

import "github.com/mna/luaj/lang/code"

// EmitJump emits an unpatched JMP (code.SentinelJumpE) and returns its PC,
// usable as a jump-list node until something patches or links it.
func (fs *FuncState) EmitJump(line int) int {
	return fs.emit(code.MakeE(code.JMP, code.SentinelJumpE), line)
}

// followJump returns the PC threaded into the JMP at pc (the next node of
// whatever list it belongs to), or NoJump if pc is still its own sentinel.
func (fs *FuncState) followJump(pc int) int {
	ins := fs.Proto.Ins[pc]
	if ins.E() == code.SentinelJumpE {
		return NoJump
	}
	return code.JumpTarget(ins, pc)
}

// patchJmp sets the JMP at pc to branch to target. Reports false if the
// distance does not fit the 24-bit E field ("control structure too long").
func (fs *FuncState) patchJmp(pc, target int) bool {
	e := int64(target-pc) + code.JumpBias
	if e < 0 || e > 0xFFFFFF {
		return false
	}
	fs.Proto.Ins[pc] = fs.Proto.Ins[pc].SetE(uint32(e))
	return true
}

// linkJmp threads the JMP at pc to point at next as a list link: it uses
// the same encoding as patchJmp (a list link is read exactly like a jump
// target, see followJump) but is named separately because it is never
// subject to a "too long" failure in practice (list nodes are always
// within one function's own instruction stream).
func (fs *FuncState) linkJmp(pc, next int) {
	fs.patchJmp(pc, next)
}

// appendJmp merges the list headed by add onto the list headed by head,
// returning the new head. Either may be NoJump.
func (fs *FuncState) appendJmp(head, add int) int {
	if add == NoJump {
		return head
	}
	if head == NoJump {
		return add
	}
	pc := add
	for {
		next := fs.followJump(pc)
		if next == NoJump {
			break
		}
		pc = next
	}
	fs.linkJmp(pc, head)
	return add
}

// valueBefore inspects the instruction immediately preceding a list node's
// JMP (the conditional test it pairs with) and reports whether that
// instruction carries a value destined for some register: either a
// conditional copy (ISTC/ISFC) or a still-relocatable instruction (A ==
// NoSlot). pc must be > 0 for any list node built by this package (a JMP
// used as a list node is always preceded by something, even if only by
// another JMP in the `or`/`and` chain).
func (fs *FuncState) valueBefore(pc int) (prevPC int, hasValue bool) {
	if pc == 0 {
		return -1, false
	}
	prev := fs.Proto.Ins[pc-1]
	switch prev.Op() {
	case code.ISTC, code.ISFC:
		return pc - 1, true
	default:
		return pc - 1, prev.Op() != code.JMP && prev.A() == code.NoSlot
	}
}

// patchJmps patches every jump in head to target, discarding any value a
// list node's conditional copy would otherwise have produced (ISTC/ISFC
// demote to IST/ISF; a pending relocatable instruction becomes NOP): used
// when the list is consumed purely for control flow (if/while/repeat
// conditions), never to materialize a boolean.
func (fs *FuncState) patchJmps(head, target int) bool {
	return fs.patchJmpsAndVals(head, target, code.NoSlot, target)
}

// patchJmpsAndVals patches every jump in head. For each node: if its
// preceding instruction carries a value (see valueBefore) and dst is not
// the sentinel, that instruction's destination is rewritten to dst and the
// jump targets valueTarget; if dst is the sentinel, the value instruction
// is demoted (ISTC/ISFC to IST/ISF, a pending reloc to NOP) and the jump
// targets jumpTarget like any value-less node.
func (fs *FuncState) patchJmpsAndVals(head, jumpTarget int, dst uint8, valueTarget int) bool {
	for pc := head; pc != NoJump; {
		next := fs.followJump(pc)
		target := jumpTarget

		if prevPC, hasValue := fs.valueBefore(pc); hasValue {
			prev := fs.Proto.Ins[prevPC]
			if dst != code.NoSlot {
				switch prev.Op() {
				case code.ISTC, code.ISFC:
					fs.Proto.Ins[prevPC] = prev.SetA(dst)
				default:
					fs.Proto.Ins[prevPC] = prev.SetA(dst)
				}
				target = valueTarget
			} else {
				switch prev.Op() {
				case code.ISTC:
					fs.Proto.Ins[prevPC] = prev.SetOp(code.IST)
				case code.ISFC:
					fs.Proto.Ins[prevPC] = prev.SetOp(code.ISF)
				default:
					fs.Proto.Ins[prevPC] = prev.SetOp(code.NOP)
				}
			}
		}

		if !fs.patchJmp(pc, target) {
			return false
		}
		pc = next
	}
	return true
}

// jmpsNeedFallThrough reports whether any jump in head is "pure" — its
// preceding instruction writes no value — meaning materializing a value
// from this list requires synthesizing true/false tail instructions.
func (fs *FuncState) jmpsNeedFallThrough(head int) bool {
	for pc := head; pc != NoJump; pc = fs.followJump(pc) {
		if _, hasValue := fs.valueBefore(pc); !hasValue {
			return true
		}
	}
	return false
}

// PatchJumpsTo patches every jump in head (a false-list or true-list
// collected while parsing a condition) to target, the parser-level
// counterpart of PatchBreaks for if/while/repeat conditions. Reports false
// on a "control structure too long" overflow.
func (fs *FuncState) PatchJumpsTo(head, target int) bool {
	return fs.patchJmps(head, target)
}

// MergeJumps merges the jump list headed by add onto the list headed by
// head (e.g. folding an if/elseif chain's per-arm exit jumps into one
// list to patch once the whole chain is parsed), returning the new head.
func (fs *FuncState) MergeJumps(head, add int) int {
	return fs.appendJmp(head, add)
}

// PatchJump patches the single JMP at pc to target, for statements (while's
// backward edge) that patch one physical jump rather than an entire list.
func (fs *FuncState) PatchJump(pc, target int) bool {
	return fs.patchJmp(pc, target)
}
