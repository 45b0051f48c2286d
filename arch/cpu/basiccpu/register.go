package basiccpu

import "fmt"

// Register indices as used in the destination and source register fields of
// an instruction word.
const (
	R1 = 1
	R2 = 2
	R3 = 3
	R4 = 4
	R5 = 5
	R6 = 6
	R7 = 7
	SP = 11
	LR = 12
	IP = 13
	DL = 14
	ST = 15

	// NumRegisters is the size of the register index space.
	NumRegisters = 16
)

// Registers maps register names to their encoding indices.
var Registers = map[string]int{
	"r1": R1,
	"r2": R2,
	"r3": R3,
	"r4": R4,
	"r5": R5,
	"r6": R6,
	"r7": R7,
	"sp": SP,
	"lr": LR,
	"ip": IP,
	"dl": DL,
	"st": ST,
}

var registerNames = map[int]string{}

func init() {
	for name, index := range Registers {
		registerNames[index] = name
	}
}

// RegisterIndex returns the encoding index of a register name.
func RegisterIndex(name string) (int, error) {
	index, ok := Registers[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRegister, name)
	}
	return index, nil
}

// RegisterName returns the name of a register index, or its decimal value
// for unassigned indices.
func RegisterName(index int) string {
	if name, ok := registerNames[index]; ok {
		return name
	}
	return fmt.Sprintf("%d", index)
}
