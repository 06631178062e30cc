package hwio_test

import (
	"errors"
	"testing"

	"chipper/hw/hwio"
)

func TestMemReadWrite(t *testing.T) {
	m := &hwio.Mem{Name: "ram", Data: make([]byte, 0x10)}

	if err := m.Write8(0x0F, 0xAB); err != nil {
		t.Fatal(err)
	}
	got, err := m.Read8(0x0F)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xAB {
		t.Errorf("Read8(0x0F) = %02x, want %02x", got, 0xAB)
	}

	if _, err := m.Read8(0x10); !errors.Is(err, hwio.ErrOutOfBounds) {
		t.Errorf("Read8(0x10) error = %v, want ErrOutOfBounds", err)
	}
	if err := m.Write8(0x10, 1); !errors.Is(err, hwio.ErrOutOfBounds) {
		t.Errorf("Write8(0x10) error = %v, want ErrOutOfBounds", err)
	}
	if got := m.Peek8(0x10); got != 0 {
		t.Errorf("Peek8(0x10) = %02x, want 0", got)
	}
}

func TestRead16(t *testing.T) {
	m := &hwio.Mem{Name: "ram", Data: []byte{0x12, 0x34, 0x56}}

	tests := []struct {
		addr    uint16
		want    uint16
		wantErr bool
	}{
		{addr: 0, want: 0x1234},
		{addr: 1, want: 0x3456},
		{addr: 2, wantErr: true}, // low byte out of range
		{addr: 3, wantErr: true},
	}
	for _, tt := range tests {
		got, err := hwio.Read16(m, tt.addr)
		if tt.wantErr {
			if !errors.Is(err, hwio.ErrOutOfBounds) {
				t.Errorf("Read16(%d) error = %v, want ErrOutOfBounds", tt.addr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Read16(%d): %v", tt.addr, err)
		}
		if got != tt.want {
			t.Errorf("Read16(%d) = %04x, want %04x", tt.addr, got, tt.want)
		}
	}

	if got := hwio.Peek16(m, 2); got != 0x5600 {
		t.Errorf("Peek16(2) = %04x, want %04x", got, 0x5600)
	}
}

func TestMemFill(t *testing.T) {
	m := &hwio.Mem{Name: "ram", Data: make([]byte, 4)}

	n, err := m.Fill(2, []byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Fill copied %d bytes, want 2", n)
	}
	if m.Data[2] != 1 || m.Data[3] != 2 {
		t.Errorf("Fill wrote % x, want 01 02", m.Data[2:])
	}

	if n, err := m.Fill(4, []byte{1}); err != nil || n != 0 {
		t.Errorf("Fill at end = %d, %v, want 0, nil", n, err)
	}
	if _, err := m.Fill(5, []byte{1}); !errors.Is(err, hwio.ErrOutOfBounds) {
		t.Errorf("Fill(5) error = %v, want ErrOutOfBounds", err)
	}
}
