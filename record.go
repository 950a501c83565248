//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/mjansson/mdns
//

package mdns

import (
	"bytes"
	"net"
)

// The record parsers take the (off, length) data slice delivered by
// [ScanMessage] together with the whole message buffer: fixed fields are
// never read past off+length, but name fields may follow compression
// pointers referencing earlier parts of the message, since compression
// targets are global to the message, not local to the record.

// ParsePTR decodes a PTR record payload, returning the pointed-to name
// written dot-joined into scratch.
func ParsePTR(msg []byte, off, length int, scratch []byte) ([]byte, error) {
	if off < 0 || length < 1 || off+length > len(msg) {
		return nil, ErrMalformedRecord
	}
	name, _, err := ExtractName(msg, off, scratch)
	return name, err
}

// ParseSRV decodes an SRV record payload. The returned target name
// aliases scratch.
func ParseSRV(msg []byte, off, length int, scratch []byte) (SRV, error) {
	// Priority, weight and port, then the compressed target name which
	// needs at least a terminator byte.
	if off < 0 || length < 7 || off+length > len(msg) {
		return SRV{}, ErrMalformedRecord
	}
	c := cursor{buf: msg, off: off}
	priority, err := c.readUint16()
	if err != nil {
		return SRV{}, err
	}
	weight, err := c.readUint16()
	if err != nil {
		return SRV{}, err
	}
	port, err := c.readUint16()
	if err != nil {
		return SRV{}, err
	}
	target, _, err := ExtractName(msg, c.off, scratch)
	if err != nil {
		return SRV{}, err
	}
	return SRV{Priority: priority, Weight: weight, Port: port, Target: target}, nil
}

// ParseA decodes an A record payload. The returned address aliases msg.
func ParseA(msg []byte, off, length int) (net.IP, error) {
	if off < 0 || length != net.IPv4len || off+length > len(msg) {
		return nil, ErrMalformedRecord
	}
	return net.IP(msg[off : off+net.IPv4len]), nil
}

// ParseAAAA decodes an AAAA record payload. The returned address
// aliases msg.
func ParseAAAA(msg []byte, off, length int) (net.IP, error) {
	if off < 0 || length != net.IPv6len || off+length > len(msg) {
		return nil, ErrMalformedRecord
	}
	return net.IP(msg[off : off+net.IPv6len]), nil
}

// ParseTXT decodes a TXT record payload into the caller-provided records
// slice and returns the number of attributes filled in. Each sub-string
// is split on its first '=', with an empty value when none is present.
// Key and value views alias msg. A sub-string whose declared length
// exceeds the remaining record bytes fails with [ErrMalformedRecord],
// preserving the attributes decoded so far.
func ParseTXT(msg []byte, off, length int, records []TXTPair) (int, error) {
	if off < 0 || length < 0 || off+length > len(msg) {
		return 0, ErrMalformedRecord
	}
	end := off + length
	n := 0
	for cur := off; cur < end && n < len(records); {
		sub := int(msg[cur])
		cur++
		if sub == 0 {
			continue
		}
		if cur+sub > end {
			return n, ErrMalformedRecord
		}
		s := msg[cur : cur+sub]
		cur += sub
		eq := bytes.IndexByte(s, '=')
		switch {
		case eq < 0:
			records[n] = TXTPair{Key: s, Value: s[len(s):]}
		case eq == 0:
			// Attribute without a key, skip.
			continue
		default:
			records[n] = TXTPair{Key: s[:eq], Value: s[eq+1:]}
		}
		n++
	}
	return n, nil
}
