package debug

// NumRegs is the size of the general-purpose and floating-point register files.
const NumRegs = 32

// State is the emulator's live register file. Indexes passed to Gpr and Fpr
// are always in [0, NumRegs).
type State interface {
	Gpr(i int) uint32
	Fpr(i int) float64
	Fpscr() uint32
	Cr() uint32
	Xer() uint32
	Lr() uint32
	Ctr() uint32
	Pc() uint32
}

// Registers reads CPU state on behalf of the host. Every call is a snapshot
// of the live value at call time.
type Registers struct {
	state State
}

func NewRegisters(s State) *Registers {
	return &Registers{state: s}
}

// GPR returns ok=false for an index outside the register file.
func (r *Registers) GPR(i int) (uint32, bool) {
	if i < 0 || i >= NumRegs {
		return 0, false
	}
	return r.state.Gpr(i), true
}

// FPR returns ok=false for an index outside the register file.
func (r *Registers) FPR(i int) (float64, bool) {
	if i < 0 || i >= NumRegs {
		return 0, false
	}
	return r.state.Fpr(i), true
}

func (r *Registers) FPSCR() uint32 { return r.state.Fpscr() }
func (r *Registers) CR() uint32    { return r.state.Cr() }
func (r *Registers) XER() uint32   { return r.state.Xer() }
func (r *Registers) LR() uint32    { return r.state.Lr() }
func (r *Registers) CTR() uint32   { return r.state.Ctr() }
func (r *Registers) PC() uint32    { return r.state.Pc() }
