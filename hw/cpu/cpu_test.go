package cpu

import (
	"testing"

	"rezid/emu/sched"
)

// flatBus is a 64 KiB RAM with no I/O, for instruction-level tests.
type flatBus struct {
	ram [0x10000]uint8
}

func (b *flatBus) Read(addr uint16) uint8     { return b.ram[addr] }
func (b *flatBus) Write(addr uint16, v uint8) { b.ram[addr] = v }
func (b *flatBus) Peek(addr uint16) uint8     { return b.ram[addr] }

func testCPU(program []uint8) (*CPU, *flatBus) {
	bus := &flatBus{}
	copy(bus.ram[0x1000:], program)
	bus.ram[ResetVector] = 0x00
	bus.ram[ResetVector+1] = 0x10

	c := New(&sched.Scheduler{}, bus)
	c.Reset()
	return c, bus
}

func TestInstructionCycles(t *testing.T) {
	tests := []struct {
		name   string
		prog   []uint8
		setup  func(c *CPU, b *flatBus)
		cycles int64
	}{
		{"LDA imm", []uint8{0xa9, 0x42}, nil, 2},
		{"LDA zp", []uint8{0xa5, 0x42}, nil, 3},
		{"LDA zp,X", []uint8{0xb5, 0x42}, nil, 4},
		{"LDA abs", []uint8{0xad, 0x00, 0x20}, nil, 4},
		{"LDA abs,X no cross", []uint8{0xbd, 0x00, 0x20}, nil, 4},
		{"LDA abs,X cross", []uint8{0xbd, 0xff, 0x20},
			func(c *CPU, b *flatBus) { c.X = 1 }, 5},
		{"STA abs,X always 5", []uint8{0x9d, 0x00, 0x20}, nil, 5},
		{"LDA (zp,X)", []uint8{0xa1, 0x42}, nil, 6},
		{"LDA (zp),Y no cross", []uint8{0xb1, 0x42}, nil, 5},
		{"LDA (zp),Y cross", []uint8{0xb1, 0x42},
			func(c *CPU, b *flatBus) { b.ram[0x42] = 0xff; c.Y = 1 }, 6},
		{"STA (zp),Y always 6", []uint8{0x91, 0x42}, nil, 6},
		{"INC abs", []uint8{0xee, 0x00, 0x20}, nil, 6},
		{"INC abs,X", []uint8{0xfe, 0x00, 0x20}, nil, 7},
		{"NOP", []uint8{0xea}, nil, 2},
		{"JMP abs", []uint8{0x4c, 0x00, 0x20}, nil, 3},
		{"JMP ind", []uint8{0x6c, 0x00, 0x20}, nil, 5},
		{"JSR", []uint8{0x20, 0x00, 0x20}, nil, 6},
		{"PHA", []uint8{0x48}, nil, 3},
		{"PLA", []uint8{0x68}, nil, 4},
		{"BEQ not taken", []uint8{0xf0, 0x10}, nil, 2},
		{"BNE taken", []uint8{0xd0, 0x10}, nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, b := testCPU(tt.prog)
			if tt.setup != nil {
				tt.setup(c, b)
			}
			start := c.Cycles
			c.Step()
			if got := c.Cycles - start; got != tt.cycles {
				t.Errorf("%s took %d cycles, want %d", tt.name, got, tt.cycles)
			}
		})
	}
}

func TestBranchPageCross(t *testing.T) {
	// Branch from 0x10F0 with offset 0x20 lands at 0x1112: page cross,
	// 4 cycles.
	bus := &flatBus{}
	bus.ram[0x10f0] = 0xd0 // BNE
	bus.ram[0x10f1] = 0x20
	bus.ram[ResetVector+1] = 0x10
	bus.ram[ResetVector] = 0xf0

	c := New(&sched.Scheduler{}, bus)
	c.Reset()
	c.Step()

	if c.Cycles != 4 {
		t.Errorf("page-crossing branch took %d cycles, want 4", c.Cycles)
	}
	if c.PC != 0x1112 {
		t.Errorf("PC = %#04x, want 0x1112", c.PC)
	}
}

func TestJMPIndirectPageBug(t *testing.T) {
	c, bus := testCPU([]uint8{0x6c, 0xff, 0x20}) // JMP ($20FF)
	bus.ram[0x20ff] = 0x34
	bus.ram[0x2100] = 0x12 // NOT used
	bus.ram[0x2000] = 0x56 // high byte wraps to page start

	c.Step()
	if c.PC != 0x5634 {
		t.Errorf("PC = %#04x, want 0x5634 (page wrap bug)", c.PC)
	}
}

func TestBCDAdc(t *testing.T) {
	tests := []struct {
		a, v    uint8
		carryIn bool
		want    uint8
		carry   bool
	}{
		{0x09, 0x01, false, 0x10, false},
		{0x50, 0x50, false, 0x00, true},
		{0x99, 0x01, false, 0x00, true},
		{0x12, 0x34, false, 0x46, false},
		{0x15, 0x26, false, 0x41, false},
		{0x81, 0x92, false, 0x73, true},
	}

	for _, tt := range tests {
		c, _ := testCPU([]uint8{0x69, tt.v}) // ADC #imm
		c.A = tt.a
		c.P.SetDecimal(true)
		c.P.SetCarry(tt.carryIn)
		c.Step()

		if c.A != tt.want || c.P.Carry() != tt.carry {
			t.Errorf("BCD %02x + %02x = %02x C=%v, want %02x C=%v",
				tt.a, tt.v, c.A, c.P.Carry(), tt.want, tt.carry)
		}
	}
}

func TestBCDSbc(t *testing.T) {
	tests := []struct {
		a, v    uint8
		carryIn bool
		want    uint8
		carry   bool
	}{
		{0x46, 0x12, true, 0x34, true},
		{0x40, 0x13, true, 0x27, true},
		{0x32, 0x02, false, 0x29, true},
		{0x12, 0x21, true, 0x91, false},
		{0x21, 0x34, true, 0x87, false},
	}

	for _, tt := range tests {
		c, _ := testCPU([]uint8{0xe9, tt.v}) // SBC #imm
		c.A = tt.a
		c.P.SetDecimal(true)
		c.P.SetCarry(tt.carryIn)
		c.Step()

		if c.A != tt.want || c.P.Carry() != tt.carry {
			t.Errorf("BCD %02x - %02x = %02x C=%v, want %02x C=%v",
				tt.a, tt.v, c.A, c.P.Carry(), tt.want, tt.carry)
		}
	}
}

func TestIRQLatencyAndVector(t *testing.T) {
	c, bus := testCPU([]uint8{0xea, 0xea}) // NOPs
	bus.ram[IRQVector] = 0x00
	bus.ram[IRQVector+1] = 0x30
	c.P.SetIntDisable(false)

	c.SetIRQ(true)
	c.Step() // NOP, then the 7-cycle interrupt sequence

	if c.PC != 0x3000 {
		t.Errorf("PC = %#04x, want IRQ vector target 0x3000", c.PC)
	}
	// 2 cycles for the NOP plus 7 for the vectoring.
	if c.Cycles != 9 {
		t.Errorf("NOP + interrupt sequence took %d cycles, want 9", c.Cycles)
	}
	if !c.P.IntDisable() {
		t.Error("I flag not set after IRQ")
	}
}

func TestIRQMaskedByIFlag(t *testing.T) {
	c, bus := testCPU([]uint8{0xea, 0xea, 0xea})
	bus.ram[IRQVector+1] = 0x30

	c.P.SetIntDisable(true)
	c.SetIRQ(true)
	c.Step()
	c.Step()

	if c.PC>>8 == 0x30 {
		t.Error("IRQ taken despite I flag set")
	}
}

func TestNMIEdgeTriggered(t *testing.T) {
	c, bus := testCPU([]uint8{0xea, 0xea, 0xea, 0xea})
	bus.ram[NMIVector] = 0x00
	bus.ram[NMIVector+1] = 0x40
	bus.ram[0x4000] = 0xea
	bus.ram[0x4001] = 0xea

	c.SetNMI(true)
	c.Step()
	c.Step() // vector + first handler instruction

	if c.PC>>8 != 0x40 {
		t.Fatalf("PC = %#04x, not in NMI handler", c.PC)
	}

	// The line staying high must not retrigger.
	pc := c.PC
	c.Step()
	if c.PC != pc+1 {
		t.Errorf("NMI retriggered on level: PC = %#04x", c.PC)
	}
}

func TestUndocumentedLAX(t *testing.T) {
	c, bus := testCPU([]uint8{0xaf, 0x00, 0x20}) // LAX abs
	bus.ram[0x2000] = 0x5a

	c.Step()
	if c.A != 0x5a || c.X != 0x5a {
		t.Errorf("LAX: A=%#x X=%#x, want both 0x5a", c.A, c.X)
	}
}

func TestUndocumentedDCP(t *testing.T) {
	c, bus := testCPU([]uint8{0xcf, 0x00, 0x20}) // DCP abs
	bus.ram[0x2000] = 0x11
	c.A = 0x10

	c.Step()
	if bus.ram[0x2000] != 0x10 {
		t.Errorf("DCP memory = %#x, want 0x10", bus.ram[0x2000])
	}
	if !c.P.Zero() || !c.P.Carry() {
		t.Error("DCP flags wrong for A == M-1")
	}
}

func TestJamHaltsCPU(t *testing.T) {
	c, _ := testCPU([]uint8{0x02})
	c.Step()

	if !c.IsHalted() {
		t.Fatal("CPU not halted by JAM opcode")
	}

	pc := c.PC
	c.Step()
	if c.PC != pc {
		t.Error("halted CPU kept executing")
	}
}

func TestRDYStallsReads(t *testing.T) {
	c, _ := testCPU([]uint8{0xa9, 0x42}) // LDA #imm, 2 cycles
	c.Steal(40)

	c.Step()
	// 2 instruction cycles + 40 stall cycles.
	if c.Cycles != 42 {
		t.Errorf("stalled LDA took %d cycles, want 42", c.Cycles)
	}
	if c.A != 0x42 {
		t.Errorf("A = %#x, want 0x42", c.A)
	}
}
