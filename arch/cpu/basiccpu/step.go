package basiccpu

import (
	"fmt"
	"time"

	"github.com/jslick/matrixvm/log"
)

// step fetches, decodes and executes a single instruction.
func (c *CPU) step() error {
	word, err := c.fetchWord()
	if err != nil {
		return err
	}
	ins := Decode(word)

	switch ins.Opcode {
	case Halt:
		c.halted = true

	case Idle:
		time.Sleep(time.Duration(c.dl) * time.Microsecond)

	case Cli:
		c.st &^= StatusInterruptEnable

	case Sti:
		c.st |= StatusInterruptEnable

	case Rstr:
		return c.reloadRegisters(*c.regs[ins.Dest])

	case Cmp:
		c.before = *c.regs[ins.Dest]
		switch ins.Mode {
		case Immediate:
			value, err := c.fetchWord()
			if err != nil {
				return err
			}
			c.result = c.before - value
		case Register:
			c.result = c.before - c.src2(ins)
		default:
			return c.fault(word)
		}

	case Tst:
		c.before = *c.regs[ins.Dest]
		c.result = c.before

	case Jmp:
		return c.branch(ins, word, true)
	case Je:
		return c.branch(ins, word, c.result == 0)
	case Jne:
		return c.branch(ins, word, c.result != 0)
	case Jge:
		return c.branch(ins, word, c.result >= 0)
	case Jg:
		return c.branch(ins, word, c.result > 0)
	case Jle:
		return c.branch(ins, word, c.result <= 0)
	case Jl:
		return c.branch(ins, word, c.result < 0)

	case Call:
		if err := c.push(c.lr); err != nil {
			return err
		}
		c.lr = c.ip
		return c.branch(ins, word, true)

	case Ret:
		c.ip = c.lr
		value, err := c.pop()
		if err != nil {
			return err
		}
		c.lr = value

	case Rti:
		return c.restoreRegisters()

	case Mov:
		switch ins.Mode {
		case Immediate:
			value, err := c.fetchWord()
			if err != nil {
				return err
			}
			*c.regs[ins.Dest] = value
		case Register:
			*c.regs[ins.Dest] = c.src2(ins)
		default:
			return c.fault(word)
		}

	case Load, Loadw, Loadb:
		return c.load(ins, word)

	case Str, Strw, Strb:
		return c.store(ins, word)

	case Push:
		var value int32
		switch ins.Mode {
		case Immediate:
			var err error
			if value, err = c.fetchWord(); err != nil {
				return err
			}
		case Register:
			value = c.src2(ins)
		default:
			return c.fault(word)
		}
		return c.push(value)

	case Pushw, Pushb:
		var value uint16
		switch ins.Mode {
		case Immediate:
			value = uint16(ins.Operand)
		case Register:
			value = uint16(c.src2(ins))
		default:
			return c.fault(word)
		}
		if ins.Opcode == Pushb {
			value &= 0xff
		}
		return c.pushHalf(value)

	case Pop:
		value, err := c.pop()
		if err != nil {
			return err
		}
		*c.regs[ins.Dest] = value

	case Popw, Popb:
		value, err := c.popHalf()
		if err != nil {
			return err
		}
		if ins.Opcode == Popb {
			value &= 0xff
		}
		*c.regs[ins.Dest] = int32(value)

	case Memcpy:
		dst := *c.regs[ins.Dest]
		src := *c.regs[ins.Src1&0xf]
		length := *c.regs[ins.Src2&0xf]
		if length < 0 {
			return c.fault(word)
		}
		if err := c.checkAddr(dst, length); err != nil {
			return err
		}
		if err := c.checkAddr(src, length); err != nil {
			return err
		}
		copy(c.mem[dst:dst+length], c.mem[src:src+length])

	case Memset:
		dst := *c.regs[ins.Dest]
		value := byte(*c.regs[ins.Src1&0xf])
		length := *c.regs[ins.Src2&0xf]
		if length < 0 {
			return c.fault(word)
		}
		if err := c.checkAddr(dst, length); err != nil {
			return err
		}
		for i := dst; i < dst+length; i++ {
			c.mem[i] = value
		}

	case Clrset, Clrsetv:
		var color int32
		switch ins.Mode {
		case Immediate:
			var err error
			if color, err = c.fetchWord(); err != nil {
				return err
			}
		case Register:
			color = c.src2(ins)
		default:
			return c.fault(word)
		}
		if ins.Opcode == Clrset {
			return c.colorSet(color)
		}
		return c.colorSetVertical(color)

	case Read:
		if ins.Mode != Immediate {
			return c.fault(word)
		}
		var value int32
		if c.ic != nil {
			value = c.ic.Pin(int(uint16(ins.Operand)))
		}
		*c.regs[ins.Dest] = value

	case Write:
		port := int(uint16(ins.Operand))
		value, err := c.fetchWord()
		if err != nil {
			return err
		}
		if err := c.mb.WritePort(port, value); err != nil {
			c.log.Warn("port write failed", log.Int("port", port), log.Err(err))
		}

	case Add, Sub, Mul, And, Or:
		return c.arith(ins, word)

	case Not:
		dst := c.regs[ins.Dest]
		c.before = *dst
		*dst = ^*dst
		c.result = *dst

	case Inc:
		dst := c.regs[ins.Dest]
		c.before = *dst
		*dst++
		c.result = *dst

	case Dec:
		dst := c.regs[ins.Dest]
		c.before = *dst
		*dst--
		c.result = *dst

	case Mulw:
		dst := c.regs[ins.Dest]
		c.before = *dst
		*dst *= int32(ins.Operand)
		c.result = *dst

	case Shr, Shl:
		dst := c.regs[ins.Dest]
		c.before = *dst
		var count int32
		switch ins.Mode {
		case Immediate:
			count = int32(ins.Src2)
		case Register:
			count = c.src2(ins)
		default:
			return c.fault(word)
		}
		if ins.Opcode == Shr {
			*dst = int32(uint32(*dst) >> uint(count&0x3f))
		} else {
			*dst = int32(uint32(*dst) << uint(count&0x3f))
		}
		c.result = *dst

	default:
		c.log.Error("undefined instruction", log.Hex("instruction", word))
		return fmt.Errorf("%w: undefined instruction %#08x", ErrInstructionFault, uint32(word))
	}
	return nil
}

// src2 returns the value of the second source register.
func (c *CPU) src2(ins Ins) int32 {
	return *c.regs[ins.Src2&0xf]
}

// branch performs a relative jump when taken. The offset must be a multiple
// of 4; after the fetch already advanced ip past the instruction word, the
// effective target is ip + offset - 4.
func (c *CPU) branch(ins Ins, word int32, taken bool) error {
	if !taken {
		return nil
	}
	offset := int32(ins.Operand)
	if offset%4 != 0 {
		c.log.Error("misaligned jump", log.Hex("instruction", word))
		return fmt.Errorf("%w: misaligned jump offset %d", ErrInstructionFault, offset)
	}
	c.ip += offset - 4
	return nil
}

// load fetches 4, 2 or 1 bytes from memory and zero-extends them into the
// destination register.
func (c *CPU) load(ins Ins, word int32) error {
	var addr int32
	switch ins.Mode {
	case Absolute:
		var err error
		if addr, err = c.fetchWord(); err != nil {
			return err
		}
	case Indirect:
		addr = c.src2(ins)
	default:
		return c.fault(word)
	}

	var value int32
	switch ins.Opcode {
	case Load:
		if err := c.checkAddr(addr, 4); err != nil {
			return err
		}
		value = c.mem.Word(addr)
	case Loadw:
		if err := c.checkAddr(addr, 2); err != nil {
			return err
		}
		value = int32(c.mem.HalfWord(addr))
	default:
		if err := c.checkAddr(addr, 1); err != nil {
			return err
		}
		value = int32(c.mem[addr])
	}
	*c.regs[ins.Dest] = value
	return nil
}

// store writes the 4, 2 or 1 low bytes of the source operand to the memory
// address held in the destination register.
func (c *CPU) store(ins Ins, word int32) error {
	addr := *c.regs[ins.Dest]

	var value int32
	switch ins.Mode {
	case Immediate:
		if ins.Opcode == Str {
			var err error
			if value, err = c.fetchWord(); err != nil {
				return err
			}
		} else {
			value = int32(ins.Operand)
		}
	case Register:
		value = c.src2(ins)
	default:
		return c.fault(word)
	}

	switch ins.Opcode {
	case Str:
		if err := c.checkAddr(addr, 4); err != nil {
			return err
		}
		c.mem.SetWord(addr, value)
	case Strw:
		if err := c.checkAddr(addr, 2); err != nil {
			return err
		}
		c.mem.SetHalfWord(addr, uint16(value))
	default:
		if err := c.checkAddr(addr, 1); err != nil {
			return err
		}
		c.mem[addr] = byte(value)
	}
	return nil
}

// arith executes a two-operand arithmetic or logic instruction and records
// the transient flag pair.
func (c *CPU) arith(ins Ins, word int32) error {
	dst := c.regs[ins.Dest]
	c.before = *dst

	var value int32
	switch ins.Mode {
	case Immediate:
		var err error
		if value, err = c.fetchWord(); err != nil {
			return err
		}
	case Register:
		value = c.src2(ins)
	default:
		return c.fault(word)
	}

	switch ins.Opcode {
	case Add:
		*dst += value
	case Sub:
		*dst -= value
	case Mul:
		*dst *= value
	case And:
		*dst &= value
	case Or:
		*dst |= value
	}
	c.result = *dst
	return nil
}

// reloadRegisters reloads all registers from 15 consecutive word slots at
// the given base address.
func (c *CPU) reloadRegisters(base int32) error {
	if err := c.checkAddr(base, (NumRegisters-1)*4); err != nil {
		return err
	}
	for i := 1; i < NumRegisters; i++ {
		*c.regs[i] = c.mem.Word(base + int32(i-1)*4)
	}
	return nil
}

// fetchWord reads the word at ip and advances ip past it.
func (c *CPU) fetchWord() (int32, error) {
	if err := c.checkAddr(c.ip, 4); err != nil {
		return 0, err
	}
	word := c.mem.Word(c.ip)
	c.ip += 4
	return word, nil
}

func (c *CPU) checkAddr(addr, length int32) error {
	if addr < 0 || addr+length > int32(len(c.mem)) {
		return fmt.Errorf("%w: address %#x", ErrMemoryOutOfBounds, uint32(addr))
	}
	return nil
}

// push pushes a word onto the stack.
func (c *CPU) push(value int32) error {
	c.sp -= 4
	if err := c.checkAddr(c.sp, 4); err != nil {
		return err
	}
	c.mem.SetWord(c.sp, value)
	return nil
}

// pop pops a word from the stack.
func (c *CPU) pop() (int32, error) {
	if err := c.checkAddr(c.sp, 4); err != nil {
		return 0, err
	}
	value := c.mem.Word(c.sp)
	c.sp += 4
	return value, nil
}

// pushHalf pushes a half-word onto the stack.
func (c *CPU) pushHalf(value uint16) error {
	c.sp -= 2
	if err := c.checkAddr(c.sp, 2); err != nil {
		return err
	}
	c.mem.SetHalfWord(c.sp, value)
	return nil
}

// popHalf pops a half-word from the stack.
func (c *CPU) popHalf() (uint16, error) {
	if err := c.checkAddr(c.sp, 2); err != nil {
		return 0, err
	}
	value := c.mem.HalfWord(c.sp)
	c.sp += 2
	return value, nil
}

func (c *CPU) fault(word int32) error {
	ins := Decode(word)
	c.log.Error("instruction fault",
		log.Hex("instruction", word),
		log.String("opcode", ins.Opcode.String()),
		log.String("mode", ins.Mode.String()))
	return fmt.Errorf("%w: %s does not support %s addressing (instruction %#08x)",
		ErrInstructionFault, ins.Opcode, ins.Mode, uint32(word))
}
