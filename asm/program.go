package asm

import (
	"bytes"
	"fmt"
	"io"
)

// Instruction is one instruction of a program. Address is assigned by the
// first assembler pass.
type Instruction struct {
	Name    string
	Args    []Argument
	Address int32
}

// symbolValue holds either a reference to an instruction (label) or a
// literal word (equate).
type symbolValue struct {
	instr *Instruction
	value int32
}

// isLabel reports whether the symbol references an instruction.
func (s symbolValue) isLabel() bool {
	return s.instr != nil
}

// address returns the instruction's address for labels, or the literal
// value for equates.
func (s symbolValue) address() int32 {
	if s.instr != nil {
		return s.instr.Address
	}
	return s.value
}

// Program is an ordered list of instructions plus a symbol table.
type Program struct {
	offset       int32
	instructions []*Instruction
	symbols      map[string]symbolValue
	pending      []string // labels adopted by the next instruction
}

// New creates an empty program. Instruction addresses are generated from
// the given base offset.
func New(offset int32) *Program {
	return &Program{
		offset:  offset,
		symbols: make(map[string]symbolValue),
	}
}

// Op appends an instruction to the program. Pending labels attach to it.
func (p *Program) Op(name string, args ...Argument) *Instruction {
	instr := &Instruction{
		Name:    name,
		Args:    args,
		Address: -1,
	}
	p.instructions = append(p.instructions, instr)

	for _, label := range p.pending {
		p.symbols[label] = symbolValue{instr: instr}
	}
	p.pending = p.pending[:0]
	return instr
}

// Label queues a label that starts at the next appended instruction.
// Redefining a name fails.
func (p *Program) Label(name string) error {
	if err := p.checkDefined(name); err != nil {
		return err
	}
	p.pending = append(p.pending, name)
	p.symbols[name] = symbolValue{}
	return nil
}

// Equate defines a symbol that holds a literal value.
// Redefining a name fails.
func (p *Program) Equate(name string, value int32) error {
	if err := p.checkDefined(name); err != nil {
		return err
	}
	p.symbols[name] = symbolValue{value: value}
	return nil
}

func (p *Program) checkDefined(name string) error {
	if _, exists := p.symbols[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSymbol, name)
	}
	return nil
}

// symbol looks up a symbol by name.
func (p *Program) symbol(name string) (symbolValue, error) {
	sym, ok := p.symbols[name]
	if !ok {
		return symbolValue{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	return sym, nil
}

// Resolve computes the word value of an argument: the address of a label,
// the value of an equate or integer, or the result of assemble-time
// arithmetic. Register and data arguments have no single word value.
func (p *Program) Resolve(arg Argument) (int32, error) {
	switch a := arg.(type) {
	case Symbol:
		sym, err := p.symbol(string(a))
		if err != nil {
			return 0, err
		}
		return sym.address(), nil

	case Integer:
		return int32(a), nil

	case BinaryOp:
		lhs, err := p.Resolve(a.LHS)
		if err != nil {
			return 0, err
		}
		rhs, err := p.Resolve(a.RHS)
		if err != nil {
			return 0, err
		}
		switch a.Op {
		case '+':
			return lhs + rhs, nil
		case '-':
			return lhs - rhs, nil
		case '*':
			return lhs * rhs, nil
		default:
			return 0, fmt.Errorf("%w: unrecognized binary operator %q", ErrInvalidArgumentType, a.Op)
		}

	default:
		return 0, fmt.Errorf("%w: %T has no word value", ErrInvalidArgumentType, arg)
	}
}

// calcAddresses assigns every instruction its address. This is the first
// pass of the assembler.
func (p *Program) calcAddresses() error {
	ip := p.offset
	for i, instr := range p.instructions {
		instr.Address = ip
		size, err := instructionSize(instr)
		if err != nil {
			return p.positionErr(i, err)
		}
		ip += int32(size)
		if rest := ip % 4; rest != 0 {
			ip += 4 - rest
		}
	}
	return nil
}

// Assemble assembles the program and writes the binary image to w. Nothing
// is written when assembly fails.
func (p *Program) Assemble(w io.Writer) error {
	image, err := p.Bytes()
	if err != nil {
		return err
	}
	_, err = w.Write(image)
	return err
}

// Bytes assembles the program and returns the binary image.
func (p *Program) Bytes() ([]byte, error) {
	if err := p.calcAddresses(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, instr := range p.instructions {
		generated, err := p.generate(instr)
		if err != nil {
			return nil, p.positionErr(i, err)
		}
		for _, word := range generated {
			buf.Write([]byte{
				byte(uint32(word) >> 24),
				byte(uint32(word) >> 16),
				byte(uint32(word) >> 8),
				byte(uint32(word)),
			})
		}
	}
	return buf.Bytes(), nil
}

func (p *Program) positionErr(index int, err error) error {
	instr := p.instructions[index]
	if instr.Address >= 0 {
		return fmt.Errorf("instruction %d (%s) at %#x: %w", index, instr.Name, uint32(instr.Address), err)
	}
	return fmt.Errorf("instruction %d (%s): %w", index, instr.Name, err)
}
