package cbus

import "fmt"

// Opcode is the first payload byte of a standard CBUS frame.
type Opcode uint8

// DataLen returns the number of data bytes that follow the opcode.
func (o Opcode) DataLen() int {
	return int(o >> 5)
}

// FrameLen returns the full payload length of a well-formed frame
// carrying this opcode.
func (o Opcode) FrameLen() int {
	return 1 + o.DataLen()
}

// Known reports whether the opcode is in the catalogue.
func (o Opcode) Known() bool {
	_, ok := opcodeNames[o]
	return ok
}

// IsEvent reports whether the opcode carries a producer event.
func (o Opcode) IsEvent() bool {
	return eventOpcodes[o]
}

// String returns the mnemonic, or "OPC_xx" for uncatalogued opcodes.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OPC_%02X", uint8(o))
}

// ParseOpcode resolves a mnemonic such as "RTON" back to its opcode.
func ParseOpcode(name string) (Opcode, bool) {
	for op, n := range opcodeNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}
