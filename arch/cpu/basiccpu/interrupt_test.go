package basiccpu_test

import (
	"testing"

	"github.com/jslick/matrixvm/arch/cpu/basiccpu"
	"github.com/jslick/matrixvm/asm"
	"github.com/jslick/matrixvm/assert"
	"github.com/jslick/matrixvm/dev"
	"github.com/jslick/matrixvm/machine"
)

// runInterruptProgram boots a machine with an interrupt controller and the
// given program. Interrupt line 0 is raised before the CPU starts; it stays
// pending until the guest enables interrupts.
func runInterruptProgram(t *testing.T, build func(p *asm.Program)) (*basiccpu.CPU, *machine.Motherboard, error) {
	t.Helper()

	p := asm.New(testOffset)
	build(p)
	image, err := p.Bytes()
	assert.NoError(t, err)

	mb := machine.New(nil)
	mb.SetMemorySize(testMemorySize)
	mb.SetBios(image, testOffset)
	mb.SetInterruptController(dev.NewInterruptController())

	cpu := basiccpu.New()
	mb.AddCPU(cpu, true)
	cpu.Interrupt(0)

	return cpu, mb, mb.Start()
}

func TestInterruptService(t *testing.T) {
	t.Parallel()

	const flagAddr = 2000

	// the interrupt vector starts at the reserved cursor, line 0 slot first
	const vectorSlot = 4

	cpu, mb, err := runInterruptProgram(t, func(p *asm.Program) {
		_ = p.Equate("VECTOR0", vectorSlot)
		_ = p.Equate("FLAG", flagAddr)

		// install the handler and enable interrupts
		p.Op("mov", asm.Register("r1"), asm.Symbol("VECTOR0"))
		p.Op("str", asm.Register("r1"), asm.Symbol("handler"))
		p.Op("mov", asm.Register("r2"), asm.Integer(0x55))
		p.Op("sti")
		// the pending line is serviced here, before the next instruction
		p.Op("inc", asm.Register("r4"))
		p.Op("halt")

		_ = p.Label("handler")
		p.Op("mov", asm.Register("r5"), asm.Symbol("FLAG"))
		p.Op("str", asm.Register("r5"), asm.Integer(0x77))
		p.Op("rti")
	})
	assert.NoError(t, err)

	state := cpu.State()
	assert.Equal(t, int32(0x77), mb.Memory().Word(flagAddr), "handler must have run")
	assert.Equal(t, 1, state.R4, "execution resumes at the next instruction")
	assert.Equal(t, 0x55, state.R2, "general-purpose registers are restored")
	assert.Equal(t, 0, state.R5, "handler-local register values are discarded by rti")
	assert.True(t, state.ST&basiccpu.StatusInterruptEnable != 0, "rti restores the interrupt-enable flag")

	// rti takes sp from the saved slot, which holds the value after the
	// first four frame pushes
	assert.Equal(t, testStackTop-16, state.SP)
}

func TestInterruptSaveLayout(t *testing.T) {
	t.Parallel()

	const vectorSlot = 4

	var afterSti *asm.Instruction

	cpu, mb, err := runInterruptProgram(t, func(p *asm.Program) {
		_ = p.Equate("VECTOR0", vectorSlot)

		p.Op("mov", asm.Register("r7"), asm.Symbol("VECTOR0"))
		p.Op("str", asm.Register("r7"), asm.Symbol("handler"))
		for i, reg := range []string{"r1", "r2", "r3", "r4", "r5", "r6"} {
			p.Op("mov", asm.Register(reg), asm.Integer(int32(0x10+i)))
		}
		p.Op("mov", asm.Register("r7"), asm.Integer(0x16))
		p.Op("sti")
		afterSti = p.Op("halt")

		// halting inside the handler leaves the saved frame on the stack
		_ = p.Label("handler")
		p.Op("halt")
	})
	assert.NoError(t, err)

	state := cpu.State()
	memory := mb.Memory()
	sp := state.SP

	// frame top down: r1..r7, three zero placeholders, sp, lr, ip, dl, st
	for i, want := range []int32{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16} {
		assert.Equal(t, want, memory.Word(sp+int32(i)*4), "saved r%d", i+1)
	}
	for i := 7; i < 10; i++ {
		assert.Equal(t, int32(0), memory.Word(sp+int32(i)*4), "placeholder %d", i-6)
	}
	assert.Equal(t, int32(testStackTop-16), memory.Word(sp+10*4), "saved sp")
	assert.Equal(t, int32(0), memory.Word(sp+11*4), "saved lr")
	assert.Equal(t, afterSti.Address, memory.Word(sp+12*4), "saved ip")
	assert.Equal(t, int32(100000), memory.Word(sp+13*4), "saved dl")

	savedStatus := memory.Word(sp + 14*4)
	assert.True(t, savedStatus&basiccpu.StatusInterruptEnable != 0, "saved st keeps the enable flag")

	// the full frame is 15 words
	assert.Equal(t, int32(testStackTop-15*4), sp)
}

func TestInterruptIgnoredWhileDisabled(t *testing.T) {
	t.Parallel()

	cpu, _, err := runInterruptProgram(t, func(p *asm.Program) {
		_ = p.Equate("VECTOR0", 4)
		p.Op("mov", asm.Register("r1"), asm.Symbol("VECTOR0"))
		p.Op("str", asm.Register("r1"), asm.Symbol("handler"))
		// interrupts stay disabled; the pending line must not fire
		p.Op("inc", asm.Register("r4"))
		p.Op("halt")

		_ = p.Label("handler")
		p.Op("mov", asm.Register("r5"), asm.Integer(0xbad))
		p.Op("rti")
	})
	assert.NoError(t, err)

	state := cpu.State()
	assert.Equal(t, 1, state.R4)
	assert.Equal(t, 0, state.R5)
}

func TestInterruptWithoutHandlerStaysPending(t *testing.T) {
	t.Parallel()

	// no handler installed: the zero vector slot disables the line
	cpu, _, err := runInterruptProgram(t, func(p *asm.Program) {
		p.Op("sti")
		p.Op("inc", asm.Register("r4"))
		p.Op("halt")
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, cpu.State().R4)
}

func TestLowestLineServicedFirst(t *testing.T) {
	t.Parallel()

	const (
		flag0 = 2000
		flag1 = 2004
	)

	p := asm.New(testOffset)
	_ = p.Equate("VECTOR0", 4)
	_ = p.Equate("VECTOR1", 8)
	_ = p.Equate("FLAG0", flag0)
	_ = p.Equate("FLAG1", flag1)
	p.Op("mov", asm.Register("r1"), asm.Symbol("VECTOR0"))
	p.Op("str", asm.Register("r1"), asm.Symbol("handler0"))
	p.Op("mov", asm.Register("r1"), asm.Symbol("VECTOR1"))
	p.Op("str", asm.Register("r1"), asm.Symbol("handler1"))
	p.Op("sti")
	p.Op("inc", asm.Register("r4"))
	p.Op("inc", asm.Register("r4"))
	p.Op("halt")

	_ = p.Label("handler0")
	p.Op("mov", asm.Register("r5"), asm.Symbol("FLAG0"))
	p.Op("str", asm.Register("r5"), asm.Integer(1))
	p.Op("rti")

	// handler1 derives its stamp from flag0, proving it ran second
	_ = p.Label("handler1")
	p.Op("load", asm.Register("r5"), asm.Symbol("FLAG0"))
	p.Op("inc", asm.Register("r5"))
	p.Op("mov", asm.Register("r6"), asm.Symbol("FLAG1"))
	p.Op("str", asm.Register("r6"), asm.Register("r5"))
	p.Op("rti")

	image, err := p.Bytes()
	assert.NoError(t, err)

	mb := machine.New(nil)
	mb.SetMemorySize(testMemorySize)
	mb.SetBios(image, testOffset)
	mb.SetInterruptController(dev.NewInterruptController())

	cpu := basiccpu.New()
	mb.AddCPU(cpu, true)
	cpu.Interrupt(1)
	cpu.Interrupt(0)

	assert.NoError(t, mb.Start())

	memory := mb.Memory()
	assert.Equal(t, int32(1), memory.Word(flag0), "line 0 must be serviced")
	assert.Equal(t, int32(2), memory.Word(flag1), "line 1 must be serviced")
}
