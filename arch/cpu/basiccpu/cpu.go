package basiccpu

import (
	"github.com/jslick/matrixvm/log"
	"github.com/jslick/matrixvm/machine"
	"github.com/jslick/matrixvm/set"
)

// NumInterruptLines is the number of interrupt lines of the CPU.
const NumInterruptLines = 32

// CPU is a BasicCpu core.
type CPU struct {
	r1, r2, r3, r4, r5, r6, r7 int32
	sp, lr, ip, dl, st         int32

	// transient pair of the last flag-setting operation
	before, result int32

	halted     bool
	interrupts set.AtomicBitSet

	// register index to storage mapping for uniform dispatch; unassigned
	// indices point at scratch
	regs    [NumRegisters]*int32
	scratch int32

	mem    machine.Memory
	mb     *machine.Motherboard
	ic     machine.InterruptController
	vector int32

	log *log.Logger
}

// Option configures a CPU.
type Option func(*CPU)

// WithLogger sets the logger used for runtime diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(c *CPU) {
		c.log = logger
	}
}

// New creates a new CPU.
func New(options ...Option) *CPU {
	c := &CPU{
		log:    log.NewNop(),
		vector: -1,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Name returns the name of the CPU.
func (c *CPU) Name() string {
	return "BasicCpu"
}

// State contains the architecturally visible register state of the CPU.
type State struct {
	R1, R2, R3, R4, R5, R6, R7 int32
	SP, LR, IP, DL, ST         int32
}

// State returns the current register state.
func (c *CPU) State() State {
	return State{
		R1: c.r1, R2: c.r2, R3: c.r3, R4: c.r4, R5: c.r5, R6: c.r6, R7: c.r7,
		SP: c.sp, LR: c.lr, IP: c.ip, DL: c.dl, ST: c.st,
	}
}

// Start begins processing CPU instructions at the given place in memory and
// returns when the CPU halts, runs off the end of memory or faults.
//
// The stack pointer is initialized to the last 4-byte-aligned address of
// main memory and grows downward. Interrupt lines raised before Start stay
// pending and are serviced once the guest enables interrupts.
func (c *CPU) Start(mb *machine.Motherboard, addr int32) error {
	c.mb = mb
	c.mem = mb.Memory()
	size := mb.MemorySize()

	c.ip = addr

	// stack grows down from the end of memory
	c.sp = size - 1
	c.sp -= c.sp % 4

	c.st = 0
	c.dl = 100000
	c.halted = false
	c.initRegisters()

	c.ic = mb.InterruptController()
	c.vector = -1
	if c.ic != nil {
		c.vector = c.ic.VectorAddress()
	}

	for !c.halted && c.ip >= 0 && c.ip < size-4 {
		if c.interruptsEnabled() && !c.interrupts.IsEmpty() {
			if err := c.dispatchInterrupt(); err != nil {
				return err
			}
		}

		if err := c.step(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CPU) initRegisters() {
	c.scratch = 0
	for i := range c.regs {
		c.regs[i] = &c.scratch
	}
	c.regs[R1] = &c.r1
	c.regs[R2] = &c.r2
	c.regs[R3] = &c.r3
	c.regs[R4] = &c.r4
	c.regs[R5] = &c.r5
	c.regs[R6] = &c.r6
	c.regs[R7] = &c.r7
	c.regs[SP] = &c.sp
	c.regs[LR] = &c.lr
	c.regs[IP] = &c.ip
	c.regs[DL] = &c.dl
	c.regs[ST] = &c.st
}
