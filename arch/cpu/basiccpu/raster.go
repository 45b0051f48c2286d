package basiccpu

import "fmt"

// colorSet paints a horizontal run of pixels with a packed 0xRRGGBB color.
// r1 holds the start address and r2 the number of pixels; pixels are three
// bytes each in R G B order.
func (c *CPU) colorSet(color int32) error {
	red := byte(color >> 16)
	green := byte(color >> 8)
	blue := byte(color)

	start := c.r1
	length := c.r2 * 3
	if length < 0 {
		return fmt.Errorf("%w: negative pixel count %d", ErrInstructionFault, c.r2)
	}
	if err := c.checkAddr(start, length); err != nil {
		return err
	}
	for i := start; i < start+length; i += 3 {
		c.mem[i+0] = red
		c.mem[i+1] = green
		c.mem[i+2] = blue
	}
	return nil
}

// colorSetVertical paints a vertical run of pixels with a packed 0xRRGGBB
// color. r1 holds the start address, r2 the skip interval in pixels and r3
// the number of pixels to paint.
func (c *CPU) colorSetVertical(color int32) error {
	red := byte(color >> 16)
	green := byte(color >> 8)
	blue := byte(color)

	start := c.r1
	stride := c.r2 * 3
	length := c.r2 * c.r3 * 3
	if stride <= 0 || length < 0 {
		return fmt.Errorf("%w: invalid raster run %d x %d", ErrInstructionFault, c.r2, c.r3)
	}
	if err := c.checkAddr(start, length); err != nil {
		return err
	}
	for i := start; i < start+length; i += stride {
		c.mem[i+0] = red
		c.mem[i+1] = green
		c.mem[i+2] = blue
	}
	return nil
}
