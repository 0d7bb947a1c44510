package wire

import "verity.dev/core/errs"

// cursor reads a byte buffer left to right, failing fast on any
// attempt to read past the end. Modeled on consensus/wire.go's cursor:
// the parser never reads out of bounds, and a short buffer is reported
// before any field is touched.
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, errs.New(errs.KindBinaryLengthError, "truncated buffer")
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) peekByte() (byte, bool) {
	if c.remaining() < 1 {
		return 0, false
	}
	return c.b[c.pos], true
}

func (c *cursor) readByte() (byte, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU16be() (uint16, error) {
	b, err := c.readExact(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}
