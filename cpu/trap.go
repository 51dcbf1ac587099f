package cpu

import (
	"log"
)

// trap dispatches one of the six I/O system calls. The caller has already
// stored the return address in r7. Selectors outside the implemented set
// are fatal.
func (cpu *Cpu) trap(vector TrapVector) (err error) {
	if cpu.Verbose {
		log.Printf("trap: %v", vector)
	}

	con := cpu.Console
	if con == nil {
		return ErrNoConsole
	}

	switch vector {
	case TRAP_GETC:
		var key byte
		key, err = con.ReadKey()
		if err != nil {
			return
		}
		cpu.setReg(R0, uint16(key))
	case TRAP_OUT:
		err = con.WriteByte(byte(cpu.Reg[R0]))
		if err != nil {
			return
		}
		err = con.Flush()
	case TRAP_PUTS:
		// One character per word, low byte only, up to the zero word.
		for addr := cpu.Reg[R0]; ; addr++ {
			word := cpu.Mem.Read(addr)
			if word == 0 {
				break
			}
			err = con.WriteByte(byte(word))
			if err != nil {
				return
			}
		}
		err = con.Flush()
	case TRAP_IN:
		err = writeString(con, "Enter a character: ")
		if err != nil {
			return
		}
		err = con.Flush()
		if err != nil {
			return
		}
		var key byte
		key, err = con.ReadKey()
		if err != nil {
			return
		}
		err = con.WriteByte(key)
		if err != nil {
			return
		}
		err = con.Flush()
		if err != nil {
			return
		}
		cpu.setReg(R0, uint16(key))
	case TRAP_PUTSP:
		// Two characters packed per word, low byte first; a zero high
		// byte ends the word early, a zero word ends the string.
		for addr := cpu.Reg[R0]; ; addr++ {
			word := cpu.Mem.Read(addr)
			if word == 0 {
				break
			}
			err = con.WriteByte(byte(word))
			if err != nil {
				return
			}
			if hi := byte(word >> 8); hi != 0 {
				err = con.WriteByte(hi)
				if err != nil {
					return
				}
			}
		}
		err = con.Flush()
	case TRAP_HALT:
		cpu.Running = false
		err = con.Flush()
	default:
		err = ErrTrapVector(vector)
	}

	return
}

// writeString sends each character of s to the console.
func writeString(con Console, s string) (err error) {
	for n := 0; n < len(s); n++ {
		err = con.WriteByte(s[n])
		if err != nil {
			return
		}
	}

	return
}
