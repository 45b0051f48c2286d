package asm

import (
	"encoding/binary"
	"fmt"

	"github.com/jslick/matrixvm/arch/cpu/basiccpu"
)

// srcArgIndex returns the index of the argument that determines the size of
// a dynamically sized opcode.
func srcArgIndex(op basiccpu.Opcode) int {
	switch op {
	case basiccpu.Push, basiccpu.Clrset, basiccpu.Clrsetv:
		return 0
	default:
		return 1
	}
}

// instructionSize calculates the encoded size of an instruction in bytes.
func instructionSize(instr *Instruction) (int, error) {
	op, err := basiccpu.OpcodeOf(instr.Name)
	if err != nil {
		return 0, err
	}

	switch op {
	case basiccpu.Db, basiccpu.Dw, basiccpu.Dd:
		data, err := collapseData(instr.Args)
		if err != nil {
			return 0, err
		}
		return len(data), nil
	}

	if basiccpu.HasDynamicSize(op) {
		index := srcArgIndex(op)
		if len(instr.Args) <= index {
			return 0, fmt.Errorf("%w: %s requires %d arguments", ErrMissingArgument, instr.Name, index+1)
		}
		_, isRegister := instr.Args[index].(Register)
		return basiccpu.InstructionSize(op, isRegister)
	}
	return basiccpu.InstructionSize(op, false)
}

// generate produces the instruction words for a single instruction. This is
// the code generation step of the second assembler pass.
func (p *Program) generate(instr *Instruction) ([]int32, error) {
	op, err := basiccpu.OpcodeOf(instr.Name)
	if err != nil {
		return nil, err
	}

	switch op {
	case basiccpu.Halt, basiccpu.Idle, basiccpu.Cli, basiccpu.Sti,
		basiccpu.Ret, basiccpu.Rti:
		return []int32{basiccpu.Encode(op, 0, 0, 0)}, nil

	case basiccpu.Tst, basiccpu.Inc, basiccpu.Dec:
		dest, err := p.registerArg(instr, 0)
		if err != nil {
			return nil, err
		}
		return []int32{basiccpu.Encode(op, 0, dest, 0)}, nil

	case basiccpu.Rstr:
		dest, err := p.registerArg(instr, 0)
		if err != nil {
			return nil, err
		}
		return []int32{basiccpu.Encode(op, basiccpu.Register, dest, 0)}, nil

	case basiccpu.Cmp, basiccpu.Mov,
		basiccpu.Add, basiccpu.Sub, basiccpu.Mul, basiccpu.And, basiccpu.Or:
		return p.generateDynamic(instr, op, basiccpu.Register, basiccpu.Immediate)

	case basiccpu.Load, basiccpu.Loadw, basiccpu.Loadb:
		return p.generateDynamic(instr, op, basiccpu.Indirect, basiccpu.Absolute)

	case basiccpu.Not:
		dest, err := p.registerArg(instr, 0)
		if err != nil {
			return nil, err
		}
		return []int32{basiccpu.Encode(op, 0, dest, 0)}, nil

	case basiccpu.Str, basiccpu.Strw, basiccpu.Strb:
		return p.generateStore(instr, op)

	case basiccpu.Jmp, basiccpu.Je, basiccpu.Jne, basiccpu.Jge,
		basiccpu.Jg, basiccpu.Jle, basiccpu.Jl, basiccpu.Call:
		return p.generateBranch(instr, op)

	case basiccpu.Push, basiccpu.Pushw, basiccpu.Pushb:
		return p.generatePush(instr, op)

	case basiccpu.Pop, basiccpu.Popw, basiccpu.Popb:
		dest, err := p.registerArg(instr, 0)
		if err != nil {
			return nil, err
		}
		return []int32{basiccpu.Encode(op, basiccpu.Register, dest, 0)}, nil

	case basiccpu.Memcpy, basiccpu.Memset:
		dest, err := p.registerArg(instr, 0)
		if err != nil {
			return nil, err
		}
		src, err := p.registerArg(instr, 1)
		if err != nil {
			return nil, err
		}
		length, err := p.registerArg(instr, 2)
		if err != nil {
			return nil, err
		}
		operand := basiccpu.SrcOperand(src, length)
		return []int32{basiccpu.Encode(op, basiccpu.Register, dest, operand)}, nil

	case basiccpu.Clrset, basiccpu.Clrsetv:
		return p.generateRaster(instr, op)

	case basiccpu.Read:
		dest, err := p.registerArg(instr, 0)
		if err != nil {
			return nil, err
		}
		port, err := p.portArg(instr, 1)
		if err != nil {
			return nil, err
		}
		return []int32{basiccpu.Encode(op, basiccpu.Immediate, dest, port)}, nil

	case basiccpu.Write:
		port, err := p.portArg(instr, 0)
		if err != nil {
			return nil, err
		}
		value, err := p.resolveArg(instr, 1)
		if err != nil {
			return nil, err
		}
		return []int32{basiccpu.Encode(op, basiccpu.Immediate, 0, port), value}, nil

	case basiccpu.Mulw:
		dest, err := p.registerArg(instr, 0)
		if err != nil {
			return nil, err
		}
		value, err := p.resolveArg(instr, 1)
		if err != nil {
			return nil, err
		}
		if value < -0x8000 || value > 0x7fff {
			return nil, fmt.Errorf("%w: immediate %d does not fit in 16 bits", ErrInvalidArgumentType, value)
		}
		return []int32{basiccpu.Encode(op, basiccpu.Immediate, dest, uint16(value))}, nil

	case basiccpu.Shr, basiccpu.Shl:
		return p.generateShift(instr, op)

	case basiccpu.Db, basiccpu.Dw, basiccpu.Dd:
		data, err := collapseData(instr.Args)
		if err != nil {
			return nil, err
		}
		generated := make([]int32, len(data)/4)
		for i := range generated {
			generated[i] = int32(binary.BigEndian.Uint32(data[i*4:]))
		}
		return generated, nil

	default:
		return nil, fmt.Errorf("%w: %s", basiccpu.ErrUnknownMnemonic, instr.Name)
	}
}

// generateDynamic covers the two-argument opcodes whose second operand is
// either a source register or a full immediate word.
func (p *Program) generateDynamic(instr *Instruction, op basiccpu.Opcode,
	registerMode, immediateMode basiccpu.Mode) ([]int32, error) {

	dest, err := p.registerArg(instr, 0)
	if err != nil {
		return nil, err
	}
	if len(instr.Args) < 2 {
		return nil, fmt.Errorf("%w: %s requires 2 arguments", ErrMissingArgument, instr.Name)
	}

	if src, ok := instr.Args[1].(Register); ok {
		index, err := basiccpu.RegisterIndex(string(src))
		if err != nil {
			return nil, err
		}
		operand := basiccpu.SrcOperand(0, index)
		return []int32{basiccpu.Encode(op, registerMode, dest, operand)}, nil
	}

	value, err := p.Resolve(instr.Args[1])
	if err != nil {
		return nil, err
	}
	return []int32{basiccpu.Encode(op, immediateMode, dest, 0), value}, nil
}

// generateStore covers str/strw/strb. The word-sized variant carries its
// immediate in a trailing word, the half-word and byte variants inside the
// instruction.
func (p *Program) generateStore(instr *Instruction, op basiccpu.Opcode) ([]int32, error) {
	dest, err := p.registerArg(instr, 0)
	if err != nil {
		return nil, err
	}
	if len(instr.Args) < 2 {
		return nil, fmt.Errorf("%w: %s requires 2 arguments", ErrMissingArgument, instr.Name)
	}

	if src, ok := instr.Args[1].(Register); ok {
		index, err := basiccpu.RegisterIndex(string(src))
		if err != nil {
			return nil, err
		}
		operand := basiccpu.SrcOperand(0, index)
		return []int32{basiccpu.Encode(op, basiccpu.Register, dest, operand)}, nil
	}

	value, err := p.Resolve(instr.Args[1])
	if err != nil {
		return nil, err
	}
	if op == basiccpu.Str {
		return []int32{basiccpu.Encode(op, basiccpu.Immediate, dest, 0), value}, nil
	}
	return []int32{basiccpu.Encode(op, basiccpu.Immediate, dest, uint16(value))}, nil
}

// generateBranch covers the relative jumps and call. The signed 16-bit
// offset is the distance from the instruction's own address to the target
// label.
func (p *Program) generateBranch(instr *Instruction, op basiccpu.Opcode) ([]int32, error) {
	if len(instr.Args) < 1 {
		return nil, fmt.Errorf("%w: %s must have a destination", ErrMissingArgument, instr.Name)
	}
	symbol, ok := instr.Args[0].(Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: first argument of %s must be a symbol", ErrInvalidArgumentType, instr.Name)
	}

	sym, err := p.symbol(string(symbol))
	if err != nil {
		return nil, err
	}

	diff := sym.address() - instr.Address
	if diff > 0xffff || diff < -0xffff {
		return nil, fmt.Errorf("%w: %s to %s is %d bytes away", ErrJumpOutOfRange, instr.Name, symbol, diff)
	}
	return []int32{basiccpu.Encode(op, basiccpu.Relative, 0, uint16(diff))}, nil
}

// generatePush covers push/pushw/pushb. The word-sized variant carries its
// immediate in a trailing word, the half-word variants inside the
// instruction.
func (p *Program) generatePush(instr *Instruction, op basiccpu.Opcode) ([]int32, error) {
	if len(instr.Args) < 1 {
		return nil, fmt.Errorf("%w: %s requires an argument", ErrMissingArgument, instr.Name)
	}

	if src, ok := instr.Args[0].(Register); ok {
		index, err := basiccpu.RegisterIndex(string(src))
		if err != nil {
			return nil, err
		}
		operand := basiccpu.SrcOperand(0, index)
		return []int32{basiccpu.Encode(op, basiccpu.Register, 0, operand)}, nil
	}

	value, err := p.Resolve(instr.Args[0])
	if err != nil {
		return nil, err
	}
	if op == basiccpu.Push {
		return []int32{basiccpu.Encode(op, basiccpu.Immediate, 0, 0), value}, nil
	}
	return []int32{basiccpu.Encode(op, basiccpu.Immediate, 0, uint16(value))}, nil
}

// generateRaster covers clrset/clrsetv.
func (p *Program) generateRaster(instr *Instruction, op basiccpu.Opcode) ([]int32, error) {
	if len(instr.Args) < 1 {
		return nil, fmt.Errorf("%w: %s requires an argument", ErrMissingArgument, instr.Name)
	}

	if src, ok := instr.Args[0].(Register); ok {
		index, err := basiccpu.RegisterIndex(string(src))
		if err != nil {
			return nil, err
		}
		operand := basiccpu.SrcOperand(0, index)
		return []int32{basiccpu.Encode(op, basiccpu.Register, 0, operand)}, nil
	}

	value, err := p.Resolve(instr.Args[0])
	if err != nil {
		return nil, err
	}
	return []int32{basiccpu.Encode(op, basiccpu.Immediate, 0, 0), value}, nil
}

// generateShift covers shr/shl. An immediate bit count is carried in the
// low byte of the instruction word; the register form shifts by the source
// register's value.
func (p *Program) generateShift(instr *Instruction, op basiccpu.Opcode) ([]int32, error) {
	dest, err := p.registerArg(instr, 0)
	if err != nil {
		return nil, err
	}
	if len(instr.Args) < 2 {
		return nil, fmt.Errorf("%w: %s requires 2 arguments", ErrMissingArgument, instr.Name)
	}

	if src, ok := instr.Args[1].(Register); ok {
		index, err := basiccpu.RegisterIndex(string(src))
		if err != nil {
			return nil, err
		}
		operand := basiccpu.SrcOperand(0, index)
		return []int32{basiccpu.Encode(op, basiccpu.Register, dest, operand)}, nil
	}

	count, err := p.Resolve(instr.Args[1])
	if err != nil {
		return nil, err
	}
	if count < 0 || count > 32 {
		return nil, fmt.Errorf("%w: %d", ErrShiftOutOfRange, count)
	}
	return []int32{basiccpu.Encode(op, basiccpu.Immediate, dest, uint16(count))}, nil
}

// registerArg returns the register index of the argument at the given
// position.
func (p *Program) registerArg(instr *Instruction, index int) (int, error) {
	if len(instr.Args) <= index {
		return 0, fmt.Errorf("%w: %s requires %d arguments", ErrMissingArgument, instr.Name, index+1)
	}
	reg, ok := instr.Args[index].(Register)
	if !ok {
		return 0, fmt.Errorf("%w: argument %d of %s must be a register", ErrInvalidArgumentType, index+1, instr.Name)
	}
	return basiccpu.RegisterIndex(string(reg))
}

// resolveArg resolves the argument at the given position to a word value.
func (p *Program) resolveArg(instr *Instruction, index int) (int32, error) {
	if len(instr.Args) <= index {
		return 0, fmt.Errorf("%w: %s requires %d arguments", ErrMissingArgument, instr.Name, index+1)
	}
	return p.Resolve(instr.Args[index])
}

// portArg resolves the argument at the given position to a device port.
// Labels are rejected; the port must fit in 16 bits.
func (p *Program) portArg(instr *Instruction, index int) (uint16, error) {
	if len(instr.Args) <= index {
		return 0, fmt.Errorf("%w: %s requires %d arguments", ErrMissingArgument, instr.Name, index+1)
	}
	if symbol, ok := instr.Args[index].(Symbol); ok {
		sym, err := p.symbol(string(symbol))
		if err != nil {
			return 0, err
		}
		if sym.isLabel() {
			return 0, fmt.Errorf("%w: port argument of %s cannot be a label", ErrInvalidArgumentType, instr.Name)
		}
	}

	port, err := p.Resolve(instr.Args[index])
	if err != nil {
		return 0, err
	}
	if port < 0 || port > 0xffff {
		return 0, fmt.Errorf("%w: %d", ErrPortOutOfRange, port)
	}
	return uint16(port), nil
}

// collapseData concatenates the payloads of data arguments into a single
// word-aligned payload.
func collapseData(args []Argument) (Data, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: data directive must have arguments", ErrMissingArgument)
	}

	var data Data
	for _, arg := range args {
		switch a := arg.(type) {
		case Data:
			data = append(data, a...)
		case Integer:
			data = append(data, WordData(int32(a))...)
		default:
			return nil, fmt.Errorf("%w: %T cannot be used in a data directive", ErrInvalidArgumentType, arg)
		}
	}
	return padData(data), nil
}
