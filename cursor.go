//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/mjansson/mdns
//

package mdns

import "encoding/binary"

// cursor is a bounds-checked view over a caller-owned buffer with a
// mutable offset. Reads fail with [ErrTruncated] past len(buf); writes
// fail with [ErrCapacityExceeded]. DNS integers are big endian.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) readUint16() (uint16, error) {
	if c.off+2 > len(c.buf) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

func (c *cursor) readUint32() (uint32, error) {
	if c.off+4 > len(c.buf) {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, nil
}

// peekUint16 reads without advancing.
func (c *cursor) peekUint16() (uint16, error) {
	if c.off+2 > len(c.buf) {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint16(c.buf[c.off:]), nil
}

func (c *cursor) writeUint16(v uint16) error {
	if c.off+2 > len(c.buf) {
		return ErrCapacityExceeded
	}
	binary.BigEndian.PutUint16(c.buf[c.off:], v)
	c.off += 2
	return nil
}

func (c *cursor) writeUint32(v uint32) error {
	if c.off+4 > len(c.buf) {
		return ErrCapacityExceeded
	}
	binary.BigEndian.PutUint32(c.buf[c.off:], v)
	c.off += 4
	return nil
}

func (c *cursor) writeBytes(p []byte) error {
	if c.off+len(p) > len(c.buf) {
		return ErrCapacityExceeded
	}
	copy(c.buf[c.off:], p)
	c.off += len(p)
	return nil
}

func (c *cursor) readHeader() (Header, error) {
	var hdr Header
	var err error
	if hdr.TransactionID, err = c.readUint16(); err != nil {
		return Header{}, err
	}
	if hdr.Flags, err = c.readUint16(); err != nil {
		return Header{}, err
	}
	if hdr.Questions, err = c.readUint16(); err != nil {
		return Header{}, err
	}
	if hdr.AnswerRRs, err = c.readUint16(); err != nil {
		return Header{}, err
	}
	if hdr.AuthorityRRs, err = c.readUint16(); err != nil {
		return Header{}, err
	}
	if hdr.AdditionalRRs, err = c.readUint16(); err != nil {
		return Header{}, err
	}
	return hdr, nil
}

func (c *cursor) writeHeader(hdr Header) error {
	if err := c.writeUint16(hdr.TransactionID); err != nil {
		return err
	}
	if err := c.writeUint16(hdr.Flags); err != nil {
		return err
	}
	if err := c.writeUint16(hdr.Questions); err != nil {
		return err
	}
	if err := c.writeUint16(hdr.AnswerRRs); err != nil {
		return err
	}
	if err := c.writeUint16(hdr.AuthorityRRs); err != nil {
		return err
	}
	return c.writeUint16(hdr.AdditionalRRs)
}
