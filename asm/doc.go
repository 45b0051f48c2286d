// Package asm provides a programmatic two-pass assembler for the BasicCpu
// instruction set.
//
// A Program is built by appending instructions and attaching labels and
// equates:
//
//	p := asm.New(1000)
//	p.Op("jmp", asm.Symbol("main"))
//	p.Label("greeting")
//	p.Op("db", asm.StringData("Hello World!\n", true))
//	p.Label("main")
//	p.Op("mov", asm.Register("r1"), asm.Symbol("greeting"))
//	p.Op("halt")
//	image, err := p.Bytes()
//
// Labels attach to the next appended instruction. Assembling runs two
// passes: the first assigns every instruction a 4-byte-aligned address
// starting at the base offset, the second resolves symbols and emits
// big-endian 32-bit words. Assembly depends only on the program and the
// base offset.
package asm
