package cpu

import "encoding/gob"

func panicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

func (cpu *GBCpu) Save(encoder *gob.Encoder) {
	panicIfErr(encoder.Encode([8]uint8{cpu.a, cpu.b, cpu.c, cpu.d, cpu.e, cpu.h, cpu.l, cpu.flags}))
	panicIfErr(encoder.Encode(cpu.SP))
	panicIfErr(encoder.Encode(cpu.PC))
	panicIfErr(encoder.Encode(cpu.Cycles))
	panicIfErr(encoder.Encode(cpu.IME))
	panicIfErr(encoder.Encode(cpu.Halted))
}

func (cpu *GBCpu) Load(decoder *gob.Decoder) error {
	var regs [8]uint8
	errs := []error{
		decoder.Decode(&regs),
		decoder.Decode(&cpu.SP),
		decoder.Decode(&cpu.PC),
		decoder.Decode(&cpu.Cycles),
		decoder.Decode(&cpu.IME),
		decoder.Decode(&cpu.Halted),
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	cpu.a, cpu.b, cpu.c, cpu.d = regs[0], regs[1], regs[2], regs[3]
	cpu.e, cpu.h, cpu.l = regs[4], regs[5], regs[6]
	cpu.SetFlags(regs[7])
	return nil
}
