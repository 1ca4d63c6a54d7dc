// Package disasm renders a compiled FuncProto as human-readable bytecode
// text: one instruction per line, operands decoded per their form,
// constants and nested prototypes listed by index.
package disasm

import (
	"bytes"
	"fmt"

	"github.com/mna/luaj/lang/code"
	"github.com/mna/luaj/lang/value"
)

// Disassemble renders proto and, recursively, every function prototype
// reachable through its constant pool, as disassembly text.
func Disassemble(proto *value.FuncProto, heap *value.Heap) string {
	d := &disasm{heap: heap, buf: new(bytes.Buffer)}
	d.function(proto)
	return d.buf.String()
}

type disasm struct {
	heap *value.Heap
	buf  *bytes.Buffer
}

func (d *disasm) writef(format string, args ...any) {
	fmt.Fprintf(d.buf, format, args...)
}

func (d *disasm) function(proto *value.FuncProto) {
	d.writef("function %s (%d params, line %d-%d)\n", proto.DisplayName(), proto.NumParams, proto.StartLine, proto.EndLine)

	if len(proto.K) > 0 {
		d.writef("\tconstants:\n")
		for i, k := range proto.K {
			d.writef("\t\t%3d\t%s\n", i, d.constString(k))
		}
	}

	d.writef("\tcode:\n")
	for pc, ins := range proto.Ins {
		d.writef("\t\t%3d\t[%d]\t%s\n", pc, proto.Line(pc), d.instruction(proto, pc, ins))
	}

	for _, k := range proto.K {
		if k.IsPointer() {
			if fp, ok := d.heap.Resolve(k).(*value.FuncProto); ok {
				d.writef("\n")
				d.function(fp)
			}
		}
	}
}

func (d *disasm) constString(k value.Value) string {
	switch {
	case k.IsNumber():
		return fmt.Sprintf("number %g", k.Float())
	case k.IsPointer():
		switch obj := d.heap.Resolve(k).(type) {
		case *value.StringObj:
			return fmt.Sprintf("string %q", obj.String())
		case *value.FuncProto:
			return fmt.Sprintf("function %s", obj.DisplayName())
		}
	}
	return "?"
}

// instruction renders one decoded instruction. A conditional test and its
// paired JMP are rendered on separate lines, each self-contained, since
// that is how they are stored — the disassembly is meant to be read
// alongside the wire format, not to re-assemble it.
func (d *disasm) instruction(proto *value.FuncProto, pc int, ins code.Instruction) string {
	op := ins.Op()
	switch op.Form() {
	case code.FormE:
		target := code.JumpTarget(ins, pc)
		return fmt.Sprintf("%-7s -> %d", op, target)
	case code.FormAD:
		a, d2 := ins.A(), ins.D()
		if a == code.NoSlot {
			return fmt.Sprintf("%-7s      %d", op, d2)
		}
		return fmt.Sprintf("%-7s %3d  %d", op, a, d2)
	default: // FormABC
		a, b, c := ins.A(), ins.B(), ins.C()
		if a == code.NoSlot {
			return fmt.Sprintf("%-7s      %d %d", op, b, c)
		}
		return fmt.Sprintf("%-7s %3d  %d %d", op, a, b, c)
	}
}
