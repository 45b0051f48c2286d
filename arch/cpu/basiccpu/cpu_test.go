package basiccpu_test

import (
	"testing"

	"github.com/jslick/matrixvm/arch/cpu/basiccpu"
	"github.com/jslick/matrixvm/asm"
	"github.com/jslick/matrixvm/assert"
	"github.com/jslick/matrixvm/machine"
)

const (
	testOffset     = 1000
	testMemorySize = 4096

	// stack top for testMemorySize: last 4-byte-aligned address
	testStackTop = 4092
)

// runProgram assembles a program and runs it on a fresh machine.
func runProgram(t *testing.T, build func(p *asm.Program)) (*basiccpu.CPU, *machine.Motherboard, error) {
	t.Helper()

	p := asm.New(testOffset)
	build(p)
	image, err := p.Bytes()
	assert.NoError(t, err)

	mb := machine.New(nil)
	mb.SetMemorySize(testMemorySize)
	mb.SetBios(image, testOffset)

	cpu := basiccpu.New()
	mb.AddCPU(cpu, true)
	return cpu, mb, mb.Start()
}

func TestMovAndArithmetic(t *testing.T) {
	t.Parallel()

	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(40))
		p.Op("add", asm.Register("r1"), asm.Integer(2))
		p.Op("mov", asm.Register("r2"), asm.Register("r1"))
		p.Op("sub", asm.Register("r2"), asm.Integer(10))
		p.Op("mov", asm.Register("r3"), asm.Integer(6))
		p.Op("mul", asm.Register("r3"), asm.Register("r3"))
		p.Op("inc", asm.Register("r4"))
		p.Op("dec", asm.Register("r5"))
		p.Op("halt")
	})
	assert.NoError(t, err)

	state := cpu.State()
	assert.Equal(t, 42, state.R1)
	assert.Equal(t, 32, state.R2)
	assert.Equal(t, 36, state.R3)
	assert.Equal(t, 1, state.R4)
	assert.Equal(t, -1, state.R5)
}

func TestLogicAndShifts(t *testing.T) {
	t.Parallel()

	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(0xf0))
		p.Op("and", asm.Register("r1"), asm.Integer(0x3c))
		p.Op("mov", asm.Register("r2"), asm.Integer(0x0f))
		p.Op("or", asm.Register("r2"), asm.Integer(0xf0))
		p.Op("mov", asm.Register("r3"), asm.Integer(0))
		p.Op("not", asm.Register("r3"))
		p.Op("mov", asm.Register("r4"), asm.Integer(1))
		p.Op("shl", asm.Register("r4"), asm.Integer(8))
		p.Op("mov", asm.Register("r5"), asm.Integer(-16))
		p.Op("shr", asm.Register("r5"), asm.Integer(28))
		p.Op("mov", asm.Register("r6"), asm.Integer(4))
		p.Op("mov", asm.Register("r7"), asm.Integer(0x100))
		p.Op("shr", asm.Register("r7"), asm.Register("r6"))
		p.Op("halt")
	})
	assert.NoError(t, err)

	state := cpu.State()
	assert.Equal(t, 0x30, state.R1)
	assert.Equal(t, 0xff, state.R2)
	assert.Equal(t, -1, state.R3)
	assert.Equal(t, 0x100, state.R4)
	// unsigned shift of 0xfffffff0
	assert.Equal(t, 0xf, state.R5)
	assert.Equal(t, 0x10, state.R7)
}

func TestMulw(t *testing.T) {
	t.Parallel()

	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(6))
		p.Op("mulw", asm.Register("r1"), asm.Integer(-7))
		p.Op("halt")
	})
	assert.NoError(t, err)
	assert.Equal(t, -42, cpu.State().R1)
}

func TestCallRetRoundTrip(t *testing.T) {
	t.Parallel()

	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("call", asm.Symbol("f"))
		p.Op("halt")
		_ = p.Label("f")
		p.Op("mov", asm.Register("r1"), asm.Integer(0x2a))
		p.Op("ret")
	})
	assert.NoError(t, err)

	state := cpu.State()
	assert.Equal(t, 0x2a, state.R1)
	assert.Equal(t, testStackTop, state.SP, "stack pointer must return to its pre-boot value")
}

func TestCompareAndBranches(t *testing.T) {
	t.Parallel()

	// 3 - 5 < 0, so jge is not taken
	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(3))
		p.Op("mov", asm.Register("r2"), asm.Integer(5))
		p.Op("cmp", asm.Register("r1"), asm.Register("r2"))
		p.Op("jge", asm.Symbol("skip"))
		p.Op("mov", asm.Register("r3"), asm.Integer(1))
		_ = p.Label("skip")
		p.Op("halt")
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, cpu.State().R3)
}

func TestBranchLoop(t *testing.T) {
	t.Parallel()

	// count r1 up to 5 with a backward jump
	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(0))
		_ = p.Label("loop")
		p.Op("inc", asm.Register("r1"))
		p.Op("cmp", asm.Register("r1"), asm.Integer(5))
		p.Op("jl", asm.Symbol("loop"))
		p.Op("halt")
	})
	assert.NoError(t, err)
	assert.Equal(t, 5, cpu.State().R1)
}

func TestJumpTakenVariants(t *testing.T) {
	t.Parallel()

	// je taken on equality, jg taken on positive result
	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(7))
		p.Op("cmp", asm.Register("r1"), asm.Integer(7))
		p.Op("je", asm.Symbol("second"))
		p.Op("mov", asm.Register("r2"), asm.Integer(0xbad))
		_ = p.Label("second")
		p.Op("cmp", asm.Register("r1"), asm.Integer(3))
		p.Op("jg", asm.Symbol("done"))
		p.Op("mov", asm.Register("r3"), asm.Integer(0xbad))
		_ = p.Label("done")
		p.Op("halt")
	})
	assert.NoError(t, err)

	state := cpu.State()
	assert.Equal(t, 0, state.R2)
	assert.Equal(t, 0, state.R3)
}

func TestLoadStore(t *testing.T) {
	t.Parallel()

	const scratch = 2000

	cpu, mb, err := runProgram(t, func(p *asm.Program) {
		_ = p.Equate("SCRATCH", scratch)
		p.Op("mov", asm.Register("r1"), asm.Symbol("SCRATCH"))
		p.Op("str", asm.Register("r1"), asm.Integer(0x11223344))
		p.Op("load", asm.Register("r2"), asm.Symbol("SCRATCH"))
		p.Op("loadw", asm.Register("r3"), asm.Symbol("SCRATCH"))
		p.Op("loadb", asm.Register("r4"), asm.Symbol("SCRATCH"))
		p.Op("mov", asm.Register("r5"), asm.Symbol("SCRATCH"))
		p.Op("load", asm.Register("r6"), asm.Register("r5"))
		p.Op("halt")
	})
	assert.NoError(t, err)

	state := cpu.State()
	assert.Equal(t, 0x11223344, state.R2)
	assert.Equal(t, 0x1122, state.R3)
	assert.Equal(t, 0x11, state.R4)
	assert.Equal(t, 0x11223344, state.R6)
	assert.Equal(t, int32(0x11223344), mb.Memory().Word(scratch))
}

func TestStoreHalfWordAndByte(t *testing.T) {
	t.Parallel()

	const scratch = 2000

	_, mb, err := runProgram(t, func(p *asm.Program) {
		_ = p.Equate("SCRATCH", scratch)
		p.Op("mov", asm.Register("r1"), asm.Symbol("SCRATCH"))
		p.Op("strw", asm.Register("r1"), asm.Integer(0x1234))
		p.Op("mov", asm.Register("r2"), asm.Integer(scratch+2))
		p.Op("strb", asm.Register("r2"), asm.Integer(0x56))
		p.Op("halt")
	})
	assert.NoError(t, err)

	memory := mb.Memory()
	assert.Equal(t, uint16(0x1234), memory.HalfWord(scratch))
	assert.Equal(t, byte(0x56), memory[scratch+2])
}

func TestStackOps(t *testing.T) {
	t.Parallel()

	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("push", asm.Integer(0x01020304))
		p.Op("mov", asm.Register("r1"), asm.Integer(0x55))
		p.Op("push", asm.Register("r1"))
		p.Op("pop", asm.Register("r2"))
		p.Op("pop", asm.Register("r3"))
		p.Op("pushw", asm.Integer(0x0102))
		p.Op("popw", asm.Register("r4"))
		p.Op("pushb", asm.Integer(0x77))
		p.Op("popb", asm.Register("r5"))
		p.Op("halt")
	})
	assert.NoError(t, err)

	state := cpu.State()
	assert.Equal(t, 0x55, state.R2)
	assert.Equal(t, 0x01020304, state.R3)
	assert.Equal(t, 0x0102, state.R4)
	assert.Equal(t, 0x77, state.R5)
	assert.Equal(t, testStackTop, state.SP)
}

func TestMemcpyMemset(t *testing.T) {
	t.Parallel()

	const (
		src = 2000
		dst = 2100
	)

	_, mb, err := runProgram(t, func(p *asm.Program) {
		_ = p.Equate("SRC", src)
		_ = p.Equate("DST", dst)
		p.Op("mov", asm.Register("r1"), asm.Symbol("SRC"))
		p.Op("str", asm.Register("r1"), asm.Integer(0x0a0b0c0d))
		p.Op("mov", asm.Register("r1"), asm.Symbol("DST"))
		p.Op("mov", asm.Register("r2"), asm.Symbol("SRC"))
		p.Op("mov", asm.Register("r3"), asm.Integer(4))
		p.Op("memcpy", asm.Register("r1"), asm.Register("r2"), asm.Register("r3"))
		p.Op("mov", asm.Register("r1"), asm.Integer(dst+4))
		p.Op("mov", asm.Register("r2"), asm.Integer(0xee))
		p.Op("mov", asm.Register("r3"), asm.Integer(4))
		p.Op("memset", asm.Register("r1"), asm.Register("r2"), asm.Register("r3"))
		p.Op("halt")
	})
	assert.NoError(t, err)

	memory := mb.Memory()
	assert.Equal(t, int32(0x0a0b0c0d), memory.Word(dst))
	assert.Equal(t, int32(-0x11111112), memory.Word(dst+4), "0xeeeeeeee as signed word")
}

func TestClrset(t *testing.T) {
	t.Parallel()

	const pixels = 2000

	_, mb, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(pixels))
		p.Op("mov", asm.Register("r2"), asm.Integer(3))
		p.Op("clrset", asm.Integer(0x102030))
		p.Op("halt")
	})
	assert.NoError(t, err)

	memory := mb.Memory()
	for i := 0; i < 3; i++ {
		assert.Equal(t, byte(0x10), memory[pixels+i*3+0])
		assert.Equal(t, byte(0x20), memory[pixels+i*3+1])
		assert.Equal(t, byte(0x30), memory[pixels+i*3+2])
	}
	assert.Equal(t, byte(0), memory[pixels+9])
}

func TestRstr(t *testing.T) {
	t.Parallel()

	const slots = 2000

	cpu, _, err := runProgram(t, func(p *asm.Program) {
		_ = p.Equate("SLOTS", slots)
		// seed the first register slot with a value for r1
		p.Op("mov", asm.Register("r1"), asm.Symbol("SLOTS"))
		p.Op("str", asm.Register("r1"), asm.Integer(0x123))
		// seed the slot of r2
		p.Op("mov", asm.Register("r1"), asm.Integer(slots+4))
		p.Op("str", asm.Register("r1"), asm.Integer(0x456))
		// the ip slot must point at the halt instruction
		p.Op("mov", asm.Register("r1"), asm.Integer(slots+(13-1)*4))
		p.Op("str", asm.Register("r1"), asm.Symbol("done"))
		p.Op("mov", asm.Register("r7"), asm.Symbol("SLOTS"))
		p.Op("rstr", asm.Register("r7"))
		_ = p.Label("done")
		p.Op("halt")
	})
	assert.NoError(t, err)

	state := cpu.State()
	assert.Equal(t, 0x123, state.R1)
	assert.Equal(t, 0x456, state.R2)
}

func TestUndefinedOpcodeFaults(t *testing.T) {
	t.Parallel()

	mb := machine.New(nil)
	mb.SetMemorySize(testMemorySize)
	mb.SetBios([]byte{0xde, 0x00, 0x00, 0x00}, testOffset)

	cpu := basiccpu.New()
	mb.AddCPU(cpu, true)

	err := mb.Start()
	assert.ErrorIs(t, err, basiccpu.ErrInstructionFault)
}

func TestInvalidAddressingModeFaults(t *testing.T) {
	t.Parallel()

	mb := machine.New(nil)
	mb.SetMemorySize(testMemorySize)
	// mov with relative addressing mode is invalid
	word := basiccpu.Encode(basiccpu.Mov, basiccpu.Relative, basiccpu.R1, 0)
	image := []byte{byte(uint32(word) >> 24), byte(uint32(word) >> 16), byte(uint32(word) >> 8), byte(uint32(word))}
	mb.SetBios(image, testOffset)

	cpu := basiccpu.New()
	mb.AddCPU(cpu, true)

	err := mb.Start()
	assert.ErrorIs(t, err, basiccpu.ErrInstructionFault)
}

func TestMemoryOutOfBoundsFaults(t *testing.T) {
	t.Parallel()

	_, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(testMemorySize+100))
		p.Op("str", asm.Register("r1"), asm.Integer(1))
		p.Op("halt")
	})
	assert.ErrorIs(t, err, basiccpu.ErrMemoryOutOfBounds)
}

func TestImplicitHaltOnZeroMemory(t *testing.T) {
	t.Parallel()

	// a program without halt runs into zeroed memory, which decodes as halt
	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(1))
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, cpu.State().R1)
}

func TestStatusMaterialization(t *testing.T) {
	t.Parallel()

	cpu, _, err := runProgram(t, func(p *asm.Program) {
		p.Op("mov", asm.Register("r1"), asm.Integer(5))
		p.Op("cmp", asm.Register("r1"), asm.Integer(5))
		p.Op("halt")
	})
	assert.NoError(t, err)

	status := cpu.Status()
	assert.True(t, status&basiccpu.StatusZero != 0)
	assert.True(t, status&basiccpu.StatusNegative == 0)
}
