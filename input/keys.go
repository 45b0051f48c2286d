// Package input defines host key codes.
//
// The codes are delivered unchanged to the guest on the keyboard data pin,
// so their numeric values are part of the machine's external interface and
// must stay stable.
package input

// Key represents a key on the host keyboard.
type Key int

// Key constants.
const (
	Unknown Key = iota
	Space
	Enter
	Backspace
	Tab
	Escape

	Up
	Down
	Left
	Right

	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	A
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z

	LeftShift
	RightShift
	LeftControl
	RightControl
	LeftAlt
	RightAlt

	// Last marks the end of the key code space.
	Last
)
