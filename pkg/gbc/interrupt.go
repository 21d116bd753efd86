package gbc

// Interrupt is one of the five interrupt sources. Mask is its bit in IE and IF.
type Interrupt struct {
	Name string
	Mask uint8
	Addr uint16
}

var (
	InterruptVBlank = Interrupt{Name: "VBLANK", Mask: 1, Addr: 0x40}
	InterruptStat   = Interrupt{Name: "STAT", Mask: 1 << 1, Addr: 0x48}
	InterruptTimer  = Interrupt{Name: "TIMER", Mask: 1 << 2, Addr: 0x50}
	InterruptSerial = Interrupt{Name: "SERIAL", Mask: 1 << 3, Addr: 0x58}
	InterruptJoypad = Interrupt{Name: "JOYPAD", Mask: 1 << 4, Addr: 0x60}
)

// Interrupts is in priority order.
var Interrupts = []Interrupt{
	InterruptVBlank,
	InterruptStat,
	InterruptTimer,
	InterruptSerial,
	InterruptJoypad,
}

const interruptBits = 0x1F

// RequestInterrupt adds i to the pending set.
func (cons *Console) RequestInterrupt(i Interrupt) {
	cons.pending |= i.Mask
}

func (cons *Console) IsPending(i Interrupt) bool {
	return cons.pending&i.Mask != 0
}

func (cons *Console) IsInterruptEnabled(i Interrupt) bool {
	return cons.IE&i.Mask != 0
}

// PendingMask is the pending set in IF layout.
func (cons *Console) PendingMask() uint8 {
	return cons.pending
}

// NextInterrupt removes and returns the highest priority interrupt that is both
// pending and enabled in IE. Pending interrupts that are masked stay pending.
func (cons *Console) NextInterrupt() (Interrupt, bool) {
	for _, i := range Interrupts {
		if cons.IsPending(i) && cons.IsInterruptEnabled(i) {
			cons.pending &^= i.Mask
			cons.acknowledge(i)
			return i, true
		}
	}
	return Interrupt{}, false
}

// wakeup reports whether any enabled interrupt is pending, which ends HALT even
// with IME clear.
func (cons *Console) wakeup() bool {
	return cons.IE&cons.pending&interruptBits != 0
}

// syncVideoInterrupts recomputes the VBlank and Stat members of the pending set
// from the PPU signals.
func (cons *Console) syncVideoInterrupts() {
	cons.setPending(InterruptVBlank, cons.PPU.VBlankSignal)
	cons.setPending(InterruptStat, cons.PPU.StatSignal)
}

func (cons *Console) setPending(i Interrupt, on bool) {
	if on {
		cons.pending |= i.Mask
	} else {
		cons.pending &^= i.Mask
	}
}

// acknowledge drops the PPU signal behind a video interrupt once it is taken or
// cleared, so the next sync does not put it back.
func (cons *Console) acknowledge(i Interrupt) {
	switch i.Mask {
	case InterruptVBlank.Mask:
		cons.PPU.AcknowledgeVBlank()
	case InterruptStat.Mask:
		cons.PPU.AcknowledgeStat()
	}
}

func (cons *Console) dispatch(i Interrupt) {
	cons.push(cons.CPU.PC)
	cons.CPU.IME = false
	cons.CPU.Halted = false
	cons.CPU.PC = i.Addr
}
