// Package dev provides the standard devices of the machine: the interrupt
// controller, a timer, a character output device and a host display.
//
// Every device implements the machine.Device contract. DMA addresses and
// ports are assigned by the motherboard during boot in device insertion
// order, so guest code that hardcodes them must match the machine
// configuration.
package dev
