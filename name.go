//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/mjansson/mdns
//

package mdns

import (
	"encoding/binary"
	"strings"
)

const (
	// maxLabelLength is the maximum length of one name label (RFC 1035).
	maxLabelLength = 63

	// maxNameLength is the maximum encoded name length including the
	// length prefixes and the terminator.
	maxNameLength = 255

	// maxNameLabels bounds the labels a single name may carry. The
	// shortest possible label encoding is two bytes, so this follows
	// from maxNameLength.
	maxNameLabels = 128

	// maxPointerFollows is the defensive bound on compression pointer
	// jumps while walking one name. Legitimate chains are far shorter;
	// the strictly-backward rule already guarantees legitimate chains
	// terminate.
	maxPointerFollows = 128

	// labelPointer marks the two high bits of a length byte that turn
	// it into the first byte of a compression pointer.
	labelPointer = 0xC0

	// maxPointerOffset is the largest offset representable in the 14-bit
	// compression pointer field.
	maxPointerOffset = 0x3FFF
)

// nameIter walks an encoded name label by label, following compression
// pointers. Every pointer must reference a position strictly earlier than
// the position holding the pointer, so the walk cannot revisit itself and
// terminates without a visited set.
type nameIter struct {
	msg   []byte
	cur   int
	next  int
	jumps int
	err   error
}

func newNameIter(msg []byte, off int) nameIter {
	return nameIter{msg: msg, cur: off, next: InvalidPos}
}

// label returns the next label, or false when the name is exhausted or
// malformed. After a false return, err holds the failure, if any, and
// next holds the position immediately after the first pointer or the
// terminator in the original stream.
func (it *nameIter) label() ([]byte, bool) {
	for {
		if it.cur < 0 || it.cur >= len(it.msg) {
			it.err = ErrTruncated
			return nil, false
		}
		c := int(it.msg[it.cur])
		switch {
		case c == 0:
			if it.next == InvalidPos {
				it.next = it.cur + 1
			}
			return nil, false
		case c&labelPointer == labelPointer:
			if it.cur+2 > len(it.msg) {
				it.err = ErrTruncated
				return nil, false
			}
			ref := (c&^labelPointer)<<8 | int(it.msg[it.cur+1])
			// Pointers must reference strictly earlier data.
			if ref >= it.cur {
				it.err = ErrMalformedName
				return nil, false
			}
			it.jumps++
			if it.jumps > maxPointerFollows {
				it.err = ErrMalformedName
				return nil, false
			}
			if it.next == InvalidPos {
				it.next = it.cur + 2
			}
			it.cur = ref
		case c&labelPointer != 0:
			// 0x40 and 0x80 length prefixes are reserved.
			it.err = ErrMalformedName
			return nil, false
		default:
			if it.cur+1+c > len(it.msg) {
				it.err = ErrTruncated
				return nil, false
			}
			label := it.msg[it.cur+1 : it.cur+1+c]
			it.cur += 1 + c
			return label, true
		}
	}
}

// ExtractName decodes the possibly compressed name starting at off within
// msg, writing its labels dot-joined into scratch. The returned name
// aliases scratch. The returned offset is the position immediately after
// the first compression pointer or the terminator in the original stream,
// since compressed jumps do not consume bytes at the name's origin.
//
// When scratch is too small to hold the decoded name, ExtractName returns
// an empty name together with the valid next offset.
func ExtractName(msg []byte, off int, scratch []byte) ([]byte, int, error) {
	it := newNameIter(msg, off)
	n := 0
	overflow := false
	for {
		label, ok := it.label()
		if !ok {
			break
		}
		need := len(label)
		if n > 0 {
			need++
		}
		if overflow || n+need > len(scratch) {
			// Keep walking so the next offset is still computed.
			overflow = true
			continue
		}
		if n > 0 {
			scratch[n] = '.'
			n++
		}
		n += copy(scratch[n:], label)
	}
	if it.err != nil {
		return nil, InvalidPos, it.err
	}
	if overflow {
		return scratch[:0], it.next, nil
	}
	return scratch[:n], it.next, nil
}

// SkipName advances past the name starting at off without materializing
// it, validating the same pointer-follow semantics as [ExtractName].
// On failure the returned offset is [InvalidPos].
func SkipName(msg []byte, off int) (int, error) {
	it := newNameIter(msg, off)
	for {
		if _, ok := it.label(); !ok {
			break
		}
	}
	if it.err != nil {
		return InvalidPos, it.err
	}
	return it.next, nil
}

// EqualName compares the names starting at aOff within a and bOff within
// b label by label, case-insensitively. Either name may be compressed and
// the two buffers may be distinct messages. Malformed names compare
// unequal.
func EqualName(a []byte, aOff int, b []byte, bOff int) bool {
	ia := newNameIter(a, aOff)
	ib := newNameIter(b, bOff)
	for {
		la, oka := ia.label()
		lb, okb := ib.label()
		if ia.err != nil || ib.err != nil {
			return false
		}
		if oka != okb {
			return false
		}
		if !oka {
			return true
		}
		if len(la) != len(lb) {
			return false
		}
		for i := 0; i < len(la); i++ {
			if foldASCII(la[i]) != foldASCII(lb[i]) {
				return false
			}
		}
	}
}

func foldASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		c += 0x20
	}
	return c
}

// equalASCIIName reports whether two dotted names are equal ignoring
// ASCII case and any trailing root dot.
//
// SPDX-License-Identifier: BSD-3-Clause
//
// Borrowed from Go src/net package.
func equalASCIIName(x, y string) bool {
	x = strings.TrimSuffix(x, ".")
	y = strings.TrimSuffix(y, ".")
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		if foldASCII(x[i]) != foldASCII(y[i]) {
			return false
		}
	}
	return true
}

// MakeName encodes name literally at off within msg, without compression,
// and returns the offset past the terminator. Labels are validated to be
// 1 to 63 bytes and the encoded form to fit in 255 bytes.
func MakeName(msg []byte, off int, name string) (int, error) {
	return MakeNameWithRef(msg, off, name, InvalidPos)
}

// MakeNameRef encodes a bare 2-byte compression pointer at off within msg
// referencing the name previously written at refOff.
func MakeNameRef(msg []byte, off int, refOff int) (int, error) {
	if refOff < 0 || refOff > maxPointerOffset {
		return InvalidPos, ErrMalformedName
	}
	if off < 0 || off+2 > len(msg) {
		return InvalidPos, ErrCapacityExceeded
	}
	binary.BigEndian.PutUint16(msg[off:], uint16(labelPointer)<<8|uint16(refOff))
	return off + 2, nil
}

// MakeNameWithRef encodes name at off within msg, writing labels literally
// until the remaining suffix equals the corresponding suffix of the name
// previously written at refOff, then emitting a compression pointer for
// the common suffix. This is how names sharing a domain suffix compress
// against each other. Passing refOff [InvalidPos] disables compression.
func MakeNameWithRef(msg []byte, off int, name string, refOff int) (int, error) {
	name = strings.TrimSuffix(name, ".")
	if len(name)+2 > maxNameLength {
		return InvalidPos, ErrMalformedName
	}

	// Split the name into labels.
	var labels [maxNameLabels]string
	n := 0
	for rest := name; rest != ""; {
		var label string
		if i := strings.IndexByte(rest, '.'); i >= 0 {
			label, rest = rest[:i], rest[i+1:]
		} else {
			label, rest = rest, ""
		}
		if len(label) == 0 || len(label) > maxLabelLength {
			return InvalidPos, ErrMalformedName
		}
		if n == maxNameLabels {
			return InvalidPos, ErrMalformedName
		}
		labels[n] = label
		n++
	}

	// Collect the labels of the reference name together with the
	// position each one is encoded at.
	var refLabels [maxNameLabels][]byte
	var refPos [maxNameLabels]int
	nref := 0
	if refOff != InvalidPos {
		it := newNameIter(msg, refOff)
		for {
			pos := it.cur
			label, ok := it.label()
			if !ok {
				break
			}
			if nref == maxNameLabels {
				return InvalidPos, ErrMalformedName
			}
			refLabels[nref] = label
			refPos[nref] = pos
			nref++
		}
		if it.err != nil {
			return InvalidPos, it.err
		}
	}

	// Find the longest common label suffix.
	match := 0
	for match < n && match < nref {
		if !labelEqualFold(labels[n-1-match], refLabels[nref-1-match]) {
			break
		}
		match++
	}
	if match > 0 && refPos[nref-match] > maxPointerOffset {
		// The shared suffix sits beyond the pointer range and
		// cannot be back-referenced.
		match = 0
	}

	// Write the non-shared labels literally.
	pos := off
	for i := 0; i < n-match; i++ {
		label := labels[i]
		if pos+1+len(label) > len(msg) {
			return InvalidPos, ErrCapacityExceeded
		}
		msg[pos] = byte(len(label))
		copy(msg[pos+1:], label)
		pos += 1 + len(label)
	}

	if match > 0 {
		return MakeNameRef(msg, pos, refPos[nref-match])
	}
	if pos >= len(msg) {
		return InvalidPos, ErrCapacityExceeded
	}
	msg[pos] = 0
	return pos + 1, nil
}

func labelEqualFold(s string, b []byte) bool {
	if len(s) != len(b) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if foldASCII(s[i]) != foldASCII(b[i]) {
			return false
		}
	}
	return true
}
