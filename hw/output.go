package hw

import (
	"image/color"
	"strings"
)

const (
	ScreenWidth  = 64
	ScreenHeight = 32
)

// Screen is the monochrome frame buffer. Outside of package hw it can only be
// read.
type Screen struct {
	pix [ScreenHeight][ScreenWidth]bool
}

// Pixel reports whether the pixel at (x, y) is lit. Coordinates wrap around.
func (s *Screen) Pixel(x, y int) bool {
	return s.pix[mod(y, ScreenHeight)][mod(x, ScreenWidth)]
}

// Lit returns the number of lit pixels.
func (s *Screen) Lit() int {
	n := 0
	for y := range s.pix {
		for x := range s.pix[y] {
			if s.pix[y][x] {
				n++
			}
		}
	}
	return n
}

func (s *Screen) clear() {
	s.pix = [ScreenHeight][ScreenWidth]bool{}
}

// flip toggles the pixel at (x, y), which must be in range, and reports
// whether it was lit before.
func (s *Screen) flip(x, y int) bool {
	was := s.pix[y][x]
	s.pix[y][x] = !was
	return was
}

// RGBA converts the frame buffer into packed RGBA pixels, in row-major order,
// into dst which must hold at least ScreenWidth*ScreenHeight*4 bytes.
func (s *Screen) RGBA(dst []byte, fg, bg color.RGBA) {
	_ = dst[ScreenWidth*ScreenHeight*4-1]
	off := 0
	for y := range s.pix {
		for x := range s.pix[y] {
			c := bg
			if s.pix[y][x] {
				c = fg
			}
			dst[off+0] = c.R
			dst[off+1] = c.G
			dst[off+2] = c.B
			dst[off+3] = c.A
			off += 4
		}
	}
}

// String renders the frame buffer as text, one line per row, '#' for lit
// pixels and '.' for unlit ones.
func (s *Screen) String() string {
	var sb strings.Builder
	sb.Grow((ScreenWidth + 1) * ScreenHeight)
	for y := range s.pix {
		for x := range s.pix[y] {
			if s.pix[y][x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// NumKeys is the number of keys of the hexadecimal keypad.
const NumKeys = 16

// Keypad is a snapshot of the keypad state, indexed by logical key 0x0-0xF.
type Keypad [NumKeys]bool

// Pressed reports whether key k is down. Only the low nibble of k is used.
func (kp *Keypad) Pressed(k uint8) bool {
	return kp[k&0x0F]
}

func (kp Keypad) String() string {
	const hexdigits = "0123456789ABCDEF"
	var buf [NumKeys]byte
	for i := range kp {
		buf[i] = '-'
		if kp[i] {
			buf[i] = hexdigits[i]
		}
	}
	return string(buf[:])
}

// Output is what the host gets back after each tick.
type Output struct {
	Video *Screen // current frame buffer
	Dirty bool    // frame buffer changed during the tick
	Tone  bool    // sound timer is running
}
