package w3g

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// cursor is a sequential, seekable reader over an in-memory buffer.
// Every read is bounds-checked and fails with a *TruncatedDataError
// tagged with the stage the cursor is currently serving.
type cursor struct {
	data  []byte
	pos   int
	stage Stage
}

func newCursor(data []byte, stage Stage) *cursor {
	return &cursor{data: data, stage: stage}
}

// Pos returns the current read offset.
func (c *cursor) Pos() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *cursor) Remaining() int { return len(c.data) - c.pos }

func (c *cursor) truncated(op string, need int) error {
	return newTruncatedDataError(c.stage, op, c.pos, need, c.Remaining())
}

// Bytes reads exactly n bytes. The returned slice aliases the buffer.
func (c *cursor) Bytes(n int, op string) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, c.truncated(op, n)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Byte reads one byte.
func (c *cursor) Byte(op string) (uint8, error) {
	if c.Remaining() < 1 {
		return 0, c.truncated(op, 1)
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// Uint16 reads a little-endian word.
func (c *cursor) Uint16(op string) (uint16, error) {
	b, err := c.Bytes(2, op)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Uint32 reads a little-endian dword.
func (c *cursor) Uint32(op string) (uint32, error) {
	b, err := c.Bytes(4, op)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Float32 reads an IEEE-754 single stored with its bytes reversed
// relative to big-endian order.
func (c *cursor) Float32(op string) (float32, error) {
	u, err := c.Uint32(op)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// PeekUint16 reads the word at pos+off without moving the cursor.
func (c *cursor) PeekUint16(off int, op string) (uint16, error) {
	at := c.pos + off
	if off < 0 || at+2 > len(c.data) {
		return 0, c.truncated(op, off+2)
	}
	return binary.LittleEndian.Uint16(c.data[at:]), nil
}

// CBytes reads a nul-terminated run. The terminator is consumed but not returned.
func (c *cursor) CBytes(op string) ([]byte, error) {
	i := bytes.IndexByte(c.data[c.pos:], 0)
	if i < 0 {
		return nil, c.truncated(op, c.Remaining()+1)
	}
	b := c.data[c.pos : c.pos+i]
	c.pos += i + 1
	return b, nil
}

// CString reads a nul-terminated string.
func (c *cursor) CString(op string) (string, error) {
	b, err := c.CBytes(op)
	if err != nil {
		return "", err
	}
	return lossyString(b), nil
}

// String reads a fixed-length string.
func (c *cursor) String(n int, op string) (string, error) {
	b, err := c.Bytes(n, op)
	if err != nil {
		return "", err
	}
	return lossyString(b), nil
}

// Seek moves the cursor by delta bytes, forward or backward.
func (c *cursor) Seek(delta int, op string) error {
	to := c.pos + delta
	if to < 0 || to > len(c.data) {
		return c.truncated(op, delta)
	}
	c.pos = to
	return nil
}

// lossyString converts b to a string, replacing invalid UTF-8 with U+FFFD.
func lossyString(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
