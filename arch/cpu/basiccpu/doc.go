// Package basiccpu provides the BasicCpu 32-bit CPU and its instruction
// set.
//
// The package carries both sides of the instruction set architecture: the
// encoding tables and bit layout shared with the assembler, and the CPU
// core that fetches, decodes and executes instructions on a motherboard.
//
// # Instruction encoding
//
// Every instruction is one 32-bit big-endian word:
//
//	bits 31-24  opcode
//	bits 23-21  addressing mode
//	bit  20     reserved
//	bits 19-16  destination register index
//	bits 15-0   operand: 16-bit immediate/offset/port, or src1<<8 | src2
//
// Some opcodes are followed by a second 32-bit word carrying a full
// immediate or absolute address. Whether the word is present depends on the
// opcode and the form of the source operand (see InstructionSize).
//
// # Registers
//
// Eleven architecturally visible 32-bit registers: r1..r7 general purpose,
// sp stack pointer, lr link register, ip instruction pointer, dl delay
// register and st status register.
package basiccpu
