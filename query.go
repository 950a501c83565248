//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/mjansson/mdns
//

package mdns

// BuildDiscoveryRequest assembles a DNS-SD service enumeration request
// into buf: transaction id zero and a single PTR question for
// [DiscoveryName]. It returns the total number of bytes written.
func BuildDiscoveryRequest(buf []byte) (int, error) {
	return buildQuestion(buf, 0, DiscoveryName, RecordTypePTR)
}

// BuildQuery assembles a single-question query for name and rtype into
// buf using the given transaction id. It returns the total number of
// bytes written.
func BuildQuery(buf []byte, transactionID uint16, name string, rtype RecordType) (int, error) {
	return buildQuestion(buf, transactionID, name, rtype)
}

func buildQuestion(buf []byte, transactionID uint16, name string, rtype RecordType) (int, error) {
	c := cursor{buf: buf}

	// 1. header with a single question
	hdr := Header{TransactionID: transactionID, Questions: 1}
	if err := c.writeHeader(hdr); err != nil {
		return 0, err
	}

	// 2. question name, literal since nothing precedes it
	off, err := MakeName(buf, c.off, name)
	if err != nil {
		return 0, err
	}
	c.off = off

	// 3. question type and class, requesting a unicast reply
	// (RFC 6762 section 5.4)
	if err := c.writeUint16(uint16(rtype)); err != nil {
		return 0, err
	}
	if err := c.writeUint16(ClassIN | UnicastResponse); err != nil {
		return 0, err
	}
	return c.off, nil
}
