package internal

import (
	"errors"
	"fmt"
	"strings"
)

const indentUnit = "    "

// Label is a branch target. Its number is unknown while the stream is being built and is assigned
// by Finalize, in the order the label definitions appear in the stream.
type Label struct {
	owner   *InstructionStream
	id      int
	defined bool
}

type instruction struct {
	text   string
	target *Label // jump target printed after text
	label  *Label // set when the line defines a label
	depth  int
	blank  bool
}

// InstructionStream is the ordered text of one output unit.
type InstructionStream struct {
	name         string
	instructions []instruction
	depth        int
	err          error
}

func NewInstructionStream(name string) *InstructionStream {
	return &InstructionStream{name: name}
}

func (stream *InstructionStream) Name() string {
	return stream.name
}

func (stream *InstructionStream) NewLabel() *Label {
	return &Label{owner: stream, id: -1}
}

func (stream *InstructionStream) Emit(format string, args ...interface{}) {
	stream.instructions = append(stream.instructions, instruction{text: fmt.Sprintf(format, args...), depth: stream.depth})
}

// EmitJump emits a branch instruction whose operand is resolved when the stream is finalized.
func (stream *InstructionStream) EmitJump(op string, target *Label) {
	stream.checkOwner(target)
	stream.instructions = append(stream.instructions, instruction{text: op, target: target, depth: stream.depth})
}

// Define places label at the current position.
func (stream *InstructionStream) Define(label *Label) {
	stream.checkOwner(label)
	if label.defined {
		stream.setErr(errors.New("label defined twice in unit " + stream.name))
		return
	}
	label.defined = true
	stream.instructions = append(stream.instructions, instruction{label: label, depth: stream.depth})
}

func (stream *InstructionStream) Blank() {
	stream.instructions = append(stream.instructions, instruction{blank: true})
}

func (stream *InstructionStream) Indent() {
	stream.depth++
}

func (stream *InstructionStream) Dedent() {
	if stream.depth > 0 {
		stream.depth--
	}
}

// LastText returns the text of the last instruction, or "" when the stream is empty or ends
// with a label definition.
func (stream *InstructionStream) LastText() string {
	for i := len(stream.instructions) - 1; i >= 0; i-- {
		ins := stream.instructions[i]
		if ins.blank {
			continue
		}
		if ins.label != nil {
			return ""
		}
		return ins.text
	}
	return ""
}

func (stream *InstructionStream) checkOwner(label *Label) {
	if label.owner != stream {
		stream.setErr(errors.New("label of another unit used in unit " + stream.name))
	}
}

func (stream *InstructionStream) setErr(err error) {
	if stream.err == nil {
		stream.err = err
	}
}

// Finalize numbers every label definition by position, rewrites all references and renders the
// lines. A label that is referenced but never defined is an error.
func (stream *InstructionStream) Finalize() ([]string, error) {
	if stream.err != nil {
		return nil, stream.err
	}
	next := 0
	for _, ins := range stream.instructions {
		if ins.label != nil {
			ins.label.id = next
			next++
		}
	}
	lines := make([]string, 0, len(stream.instructions))
	for _, ins := range stream.instructions {
		if ins.blank {
			lines = append(lines, "")
			continue
		}
		indent := strings.Repeat(indentUnit, ins.depth)
		switch {
		case ins.label != nil:
			lines = append(lines, fmt.Sprintf("%sL%d:", indent, ins.label.id))
		case ins.target != nil:
			if !ins.target.defined {
				return nil, errors.New(fmt.Sprintf("label referenced by `%s` is never defined in unit %s",
					ins.text, stream.name))
			}
			lines = append(lines, fmt.Sprintf("%s%s L%d", indent, ins.text, ins.target.id))
		default:
			lines = append(lines, indent+ins.text)
		}
	}
	return lines, nil
}
