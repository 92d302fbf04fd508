// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package bgpls

import (
	"encoding/binary"
	"fmt"
)

// Cursor is a bounds-checked reader over an NLRI byte region.
// Reads never panic on underrun; they return a TruncatedTlv DecodeError.
type Cursor struct {
	data []byte
	off  int
}

func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the number of unread bytes.
func (c *Cursor) Len() int {
	return len(c.data) - c.off
}

func (c *Cursor) Offset() int {
	return c.off
}

// Rest returns a copy of the unread bytes without advancing.
func (c *Cursor) Rest() []byte {
	return append([]byte(nil), c.data[c.off:]...)
}

func (c *Cursor) underrun(want int) error {
	return newDecodeError(KindTruncatedTLV, c.Rest(),
		fmt.Sprintf("need %d bytes at offset %d, but only %d remain", want, c.off, c.Len()))
}

func (c *Cursor) ReadUint8() (uint8, error) {
	if c.Len() < 1 {
		return 0, c.underrun(1)
	}
	v := c.data[c.off]
	c.off++
	return v, nil
}

func (c *Cursor) ReadUint16() (uint16, error) {
	if c.Len() < 2 {
		return 0, c.underrun(2)
	}
	v := binary.BigEndian.Uint16(c.data[c.off:])
	c.off += 2
	return v, nil
}

func (c *Cursor) ReadUint32() (uint32, error) {
	if c.Len() < 4 {
		return 0, c.underrun(4)
	}
	v := binary.BigEndian.Uint32(c.data[c.off:])
	c.off += 4
	return v, nil
}

func (c *Cursor) ReadUint64() (uint64, error) {
	if c.Len() < 8 {
		return 0, c.underrun(8)
	}
	v := binary.BigEndian.Uint64(c.data[c.off:])
	c.off += 8
	return v, nil
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || c.Len() < n {
		return nil, c.underrun(n)
	}
	b := append([]byte(nil), c.data[c.off:c.off+n]...)
	c.off += n
	return b, nil
}

// Sub returns a cursor limited to the next n bytes and advances c past them.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	if n < 0 || c.Len() < n {
		return nil, c.underrun(n)
	}
	sub := &Cursor{data: c.data[c.off : c.off+n]}
	c.off += n
	return sub, nil
}
