package code

// An Instruction is a single 32-bit bytecode word: op in bits 0-7, then
// either ABC (8/8/8), AD (8/16) or E (24, JMP only) depending on op's Form.
type Instruction uint32

// JumpBias centers JMP's signed 24-bit displacement so it can be stored as
// an unsigned field: a JMP's E operand encodes (target - pc + JumpBias).
const JumpBias = 1 << 23

// MaxJumpDistance is the largest forward or backward distance a JMP can
// encode given JumpBias.
const MaxJumpDistance = JumpBias - 1

// NoSlot is the sentinel register index used for relocatable instructions
// awaiting a destination slot.
const NoSlot = 0xff

// SentinelJumpE is the E field value a freshly emitted, not-yet-patched JMP
// carries while it is still a node of an in-stream jump list. It decodes
// (via JumpTarget) to a self-jump (target == its own pc), a shape the
// emitter never legitimately produces — a JMP is always appended after the
// pc it could target, so target == pc cannot arise from real patching —
// which makes it safe to reuse as the "still unpatched" marker instead of
// tracking that out of band.
const SentinelJumpE = JumpBias

// Primitive tags carried by KPRIM's D operand, shared by the emitter (which
// writes them) and the machine (which decodes them) so neither has to
// agree on an encoding through any other channel.
const (
	PrimTrue  uint16 = iota
	PrimFalse
	PrimNil
)

const (
	shiftOp = 0
	shiftA  = 8
	shiftB  = 16
	shiftC  = 24
	shiftD  = 16
	shiftE  = 8

	maskOp = 0xff
	maskA  = 0xff
	maskB  = 0xff
	maskC  = 0xff
	maskD  = 0xffff
	maskE  = 0xffffff
)

// MakeABC builds an Instruction in ABC form.
func MakeABC(op Op, a, b, c uint8) Instruction {
	return Instruction(uint32(op)<<shiftOp | uint32(a)<<shiftA | uint32(b)<<shiftB | uint32(c)<<shiftC)
}

// MakeAD builds an Instruction in AD form.
func MakeAD(op Op, a uint8, d uint16) Instruction {
	return Instruction(uint32(op)<<shiftOp | uint32(a)<<shiftA | uint32(d)<<shiftD)
}

// MakeE builds an Instruction in E form (JMP only) whose E field is e: a
// biased displacement (target - pc + JumpBias), or SentinelJumpE for a
// jump not yet patched.
func MakeE(op Op, e uint32) Instruction {
	return Instruction(uint32(op)<<shiftOp | (e&maskE)<<shiftE)
}

// Op returns the instruction's opcode.
func (ins Instruction) Op() Op { return Op(ins & maskOp) }

// A returns the A operand (ABC or AD form).
func (ins Instruction) A() uint8 { return uint8(ins >> shiftA & maskA) }

// B returns the B operand (ABC form).
func (ins Instruction) B() uint8 { return uint8(ins >> shiftB & maskB) }

// C returns the C operand (ABC form).
func (ins Instruction) C() uint8 { return uint8(ins >> shiftC & maskC) }

// D returns the D operand (AD form).
func (ins Instruction) D() uint16 { return uint16(ins >> shiftD & maskD) }

// E returns the E operand (JMP form).
func (ins Instruction) E() uint32 { return uint32(ins>>shiftE) & maskE }

// SetA rewrites the A operand in place, preserving every other field. Used
// by the emitter to patch a relocatable instruction's destination slot
// after the fact.
func (ins Instruction) SetA(a uint8) Instruction {
	return ins&^(Instruction(maskA)<<shiftA) | Instruction(a)<<shiftA
}

// SetB rewrites the B operand in place.
func (ins Instruction) SetB(b uint8) Instruction {
	return ins&^(Instruction(maskB)<<shiftB) | Instruction(b)<<shiftB
}

// SetC rewrites the C operand in place.
func (ins Instruction) SetC(c uint8) Instruction {
	return ins&^(Instruction(maskC)<<shiftC) | Instruction(c)<<shiftC
}

// SetD rewrites the D operand in place.
func (ins Instruction) SetD(d uint16) Instruction {
	return ins&^(Instruction(maskD)<<shiftD) | Instruction(d)<<shiftD
}

// SetE rewrites the E operand in place (JMP displacement).
func (ins Instruction) SetE(e uint32) Instruction {
	return ins&^(Instruction(maskE)<<shiftE) | Instruction(e&maskE)<<shiftE
}

// SetOp rewrites the opcode in place, preserving the operand bits. Used to
// demote ISTC/ISFC to IST/ISF, or to turn a relocatable instruction into a
// NOP, while patching jump lists.
func (ins Instruction) SetOp(op Op) Instruction {
	return ins&^Instruction(maskOp) | Instruction(op)
}

// JumpTarget decodes a JMP instruction's absolute target PC, given the PC at
// which it is located.
func JumpTarget(ins Instruction, pc int) int {
	return pc + int(ins.E()) - JumpBias
}
