//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/mjansson/mdns
//

package mdns

import (
	"encoding/binary"
	"net"
)

// maxNameRefs bounds the name reference table threaded through a single
// message build. The answer shapes this package builds never write more
// than a handful of names.
const maxNameRefs = 8

type nameRef struct {
	name string
	off  int
}

// nameRefTable records the names written so far while building a message
// so later occurrences compress into 2-byte pointers. It lives on the
// stack of one build call and is discarded on return.
type nameRefTable struct {
	refs [maxNameRefs]nameRef
	n    int
}

// writeName encodes name at off within msg, compressing against earlier
// occurrences: an identical earlier name becomes a bare pointer, a name
// sharing a suffix with the first recorded name compresses the suffix.
func (t *nameRefTable) writeName(msg []byte, off int, name string) (int, error) {
	for i := 0; i < t.n; i++ {
		if equalASCIIName(t.refs[i].name, name) {
			return MakeNameRef(msg, off, t.refs[i].off)
		}
	}
	refOff := InvalidPos
	if t.n > 0 {
		refOff = t.refs[0].off
	}
	next, err := MakeNameWithRef(msg, off, name, refOff)
	if err != nil {
		return InvalidPos, err
	}
	// Names first written beyond the 14-bit pointer range cannot be
	// back-referenced later.
	if off <= maxPointerOffset && t.n < maxNameRefs {
		t.refs[t.n] = nameRef{name: name, off: off}
		t.n++
	}
	return next, nil
}

// BuildDiscoveryAnswer assembles a response to a DNS-SD discovery request
// into buf: transaction id zero, the discovery question echoed, and the
// single synthesized record rec. It returns the total number of bytes
// written.
func BuildDiscoveryAnswer(buf []byte, rec Record) (int, error) {
	return buildAnswer(buf, 0, DiscoveryName, RecordTypePTR, rec)
}

// BuildQueryAnswer assembles a response to a query into buf: the original
// transaction id, the queried question echoed, and the single synthesized
// record rec. The record's owner name compresses against the question
// name when they share a suffix. It returns the total number of bytes
// written.
func BuildQueryAnswer(buf []byte, transactionID uint16, name string, rtype RecordType, rec Record) (int, error) {
	return buildAnswer(buf, transactionID, name, rtype, rec)
}

func buildAnswer(buf []byte, transactionID uint16, qname string, qtype RecordType, rec Record) (int, error) {
	c := cursor{buf: buf}

	// 1. header: response, authoritative, one question, one answer
	hdr := Header{
		TransactionID: transactionID,
		Flags:         FlagResponse | FlagAuthoritative,
		Questions:     1,
		AnswerRRs:     1,
	}
	if err := c.writeHeader(hdr); err != nil {
		return 0, err
	}

	// 2. echo the question
	var refs nameRefTable
	off, err := refs.writeName(buf, c.off, qname)
	if err != nil {
		return 0, err
	}
	c.off = off
	if err := c.writeUint16(uint16(qtype)); err != nil {
		return 0, err
	}
	if err := c.writeUint16(ClassIN); err != nil {
		return 0, err
	}

	// 3. answer owner name, type, class, TTL
	owner := rec.Name
	if owner == "" {
		owner = qname
	}
	off, err = refs.writeName(buf, c.off, owner)
	if err != nil {
		return 0, err
	}
	c.off = off
	if err := c.writeUint16(uint16(rec.Type)); err != nil {
		return 0, err
	}
	if err := c.writeUint16(ClassIN); err != nil {
		return 0, err
	}
	if err := c.writeUint32(rec.TTL); err != nil {
		return 0, err
	}

	// 4. record data, with the length backpatched once written
	lenPos := c.off
	if err := c.writeUint16(0); err != nil {
		return 0, err
	}
	start := c.off
	if err := writeRecordData(buf, &c, &refs, rec); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint16(buf[lenPos:], uint16(c.off-start))
	return c.off, nil
}

func writeRecordData(buf []byte, c *cursor, refs *nameRefTable, rec Record) error {
	switch rec.Type {
	case RecordTypeA:
		ip := rec.A.To4()
		if ip == nil {
			return ErrMalformedRecord
		}
		return c.writeBytes(ip)
	case RecordTypeAAAA:
		ip := rec.AAAA.To16()
		if ip == nil {
			return ErrMalformedRecord
		}
		return c.writeBytes(ip)
	case RecordTypePTR:
		off, err := refs.writeName(buf, c.off, rec.PTR)
		if err != nil {
			return err
		}
		c.off = off
		return nil
	case RecordTypeSRV:
		if err := c.writeUint16(rec.SRV.Priority); err != nil {
			return err
		}
		if err := c.writeUint16(rec.SRV.Weight); err != nil {
			return err
		}
		if err := c.writeUint16(rec.SRV.Port); err != nil {
			return err
		}
		off, err := refs.writeName(buf, c.off, rec.SRV.Target)
		if err != nil {
			return err
		}
		c.off = off
		return nil
	case RecordTypeTXT:
		if len(rec.TXT) == 0 {
			// TXT data must carry at least one string.
			return c.writeBytes([]byte{0})
		}
		for _, kv := range rec.TXT {
			sub := len(kv.Key)
			if len(kv.Value) > 0 {
				sub += 1 + len(kv.Value)
			}
			if len(kv.Key) == 0 || sub > 255 {
				return ErrMalformedRecord
			}
			if c.off+1+sub > len(buf) {
				return ErrCapacityExceeded
			}
			buf[c.off] = byte(sub)
			c.off++
			c.off += copy(buf[c.off:], kv.Key)
			if len(kv.Value) > 0 {
				buf[c.off] = '='
				c.off++
				c.off += copy(buf[c.off:], kv.Value)
			}
		}
		return nil
	default:
		return ErrMalformedRecord
	}
}

// ScanMessage walks the header and the four entry sections of the inbound
// datagram msg, invoking cb once per entry and accumulating its return
// values. A datagram shorter than the 12-byte header fails with
// [ErrTruncated] before any entry is delivered. A malformed entry aborts
// scanning of the remainder of the datagram but entries already delivered
// to cb are kept: the accumulated count is returned alongside the error.
func ScanMessage(from net.Addr, msg []byte, cb RecordCallback) (int, error) {
	c := cursor{buf: msg}
	hdr, err := c.readHeader()
	if err != nil {
		return 0, err
	}
	sections := [...]struct {
		entry EntryType
		count uint16
	}{
		{EntryTypeQuestion, hdr.Questions},
		{EntryTypeAnswer, hdr.AnswerRRs},
		{EntryTypeAuthority, hdr.AuthorityRRs},
		{EntryTypeAdditional, hdr.AdditionalRRs},
	}
	total := 0
	for _, section := range sections {
		for i := uint16(0); i < section.count; i++ {
			nameOff := c.off
			next, err := SkipName(msg, c.off)
			if err != nil {
				return total, err
			}
			c.off = next
			rtype, err := c.readUint16()
			if err != nil {
				return total, err
			}
			rclass, err := c.readUint16()
			if err != nil {
				return total, err
			}
			if section.entry == EntryTypeQuestion {
				total += cb(from, section.entry, hdr.TransactionID,
					RecordType(rtype), rclass, 0, msg, nameOff, next-nameOff)
				continue
			}
			ttl, err := c.readUint32()
			if err != nil {
				return total, err
			}
			rdlength, err := c.readUint16()
			if err != nil {
				return total, err
			}
			if c.off+int(rdlength) > len(msg) {
				return total, ErrMalformedRecord
			}
			total += cb(from, section.entry, hdr.TransactionID,
				RecordType(rtype), rclass, ttl, msg, c.off, int(rdlength))
			c.off += int(rdlength)
		}
	}
	return total, nil
}
