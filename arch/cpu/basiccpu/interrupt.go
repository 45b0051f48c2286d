package basiccpu

// Interrupt raises the given interrupt line. Safe to call from any thread.
// The line is serviced between instructions once interrupts are enabled.
func (c *CPU) Interrupt(line int) {
	c.interrupts.Add(line)
}

// dispatchInterrupt services the lowest pending interrupt line that has a
// nonzero handler installed in the interrupt vector. The full register
// state is saved to the stack and execution continues at the handler.
func (c *CPU) dispatchInterrupt() error {
	if c.vector < 0 {
		return nil
	}

	for line := 0; line < NumInterruptLines; line++ {
		if !c.interrupts.Contains(line) {
			continue
		}

		handler, err := c.memWordAt(c.vector + int32(line)*4)
		if err != nil {
			return err
		}
		if handler == 0 {
			continue
		}

		c.commitStatus()
		if err := c.pushRegisters(); err != nil {
			return err
		}
		// the handler runs with interrupts disabled until the guest
		// executes sti or returns with rti
		c.st &^= StatusInterruptEnable
		c.ip = handler
		c.interrupts.Remove(line)
		return nil
	}
	return nil
}

// pushRegisters saves the full register state to the stack on interrupt
// entry: st, dl, ip, lr, sp, three zero placeholders, then r7 down to r1.
// The frame is 15 words; the saved sp is the value after the first four
// pushes.
func (c *CPU) pushRegisters() error {
	for _, value := range []int32{c.st, c.dl, c.ip, c.lr} {
		if err := c.push(value); err != nil {
			return err
		}
	}
	if err := c.push(c.sp); err != nil {
		return err
	}
	for _, value := range []int32{0, 0, 0, c.r7, c.r6, c.r5, c.r4, c.r3, c.r2, c.r1} {
		if err := c.push(value); err != nil {
			return err
		}
	}
	return nil
}

// restoreRegisters is the inverse of pushRegisters, executed by rti. The
// stack pointer is taken from the saved slot.
func (c *CPU) restoreRegisters() error {
	for _, reg := range []*int32{&c.r1, &c.r2, &c.r3, &c.r4, &c.r5, &c.r6, &c.r7} {
		value, err := c.pop()
		if err != nil {
			return err
		}
		*reg = value
	}

	// skip the zero placeholders
	c.sp += 4 * 3

	restoredSP, err := c.pop()
	if err != nil {
		return err
	}
	for _, reg := range []*int32{&c.lr, &c.ip, &c.dl, &c.st} {
		value, err := c.pop()
		if err != nil {
			return err
		}
		*reg = value
	}
	c.sp = restoredSP
	return nil
}

// memWordAt reads a word from memory with bounds checking.
func (c *CPU) memWordAt(addr int32) (int32, error) {
	if err := c.checkAddr(addr, 4); err != nil {
		return 0, err
	}
	return c.mem.Word(addr), nil
}
