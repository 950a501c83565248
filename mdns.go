//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/mjansson/mdns
//

package mdns

import (
	"errors"
	"net"
)

const (
	// Port is the UDP port assigned to mDNS (RFC 6762 section 5).
	Port = 5353

	// DiscoveryName is the DNS-SD meta-service name queried to enumerate
	// all services advertised on the local network (RFC 6763 section 9).
	DiscoveryName = "_services._dns-sd._udp.local."

	// HeaderSize is the fixed size of a DNS message header in bytes.
	HeaderSize = 12

	// InvalidPos is the sentinel returned as an offset when a decode or
	// encode operation fails. It is distinct from every valid offset.
	InvalidPos = -1
)

// RecordType identifies a DNS resource record type. The zero value means
// the record is not one of the types this package decodes.
type RecordType uint16

const (
	// RecordTypeIgnore marks a record type this package does not decode.
	RecordTypeIgnore = RecordType(0)

	// RecordTypeA is an IPv4 host address record.
	RecordTypeA = RecordType(1)

	// RecordTypePTR is a domain name pointer record.
	RecordTypePTR = RecordType(12)

	// RecordTypeTXT is a text attribute record.
	RecordTypeTXT = RecordType(16)

	// RecordTypeAAAA is an IPv6 host address record.
	RecordTypeAAAA = RecordType(28)

	// RecordTypeSRV is a server selection record (RFC 2782).
	RecordTypeSRV = RecordType(33)
)

// EntryType identifies the section of a DNS message an entry belongs to.
type EntryType int

const (
	// EntryTypeQuestion is an entry from the question section.
	EntryTypeQuestion = EntryType(iota)

	// EntryTypeAnswer is an entry from the answer section.
	EntryTypeAnswer

	// EntryTypeAuthority is an entry from the authority section.
	EntryTypeAuthority

	// EntryTypeAdditional is an entry from the additional section.
	EntryTypeAdditional
)

const (
	// ClassIN is the Internet record class, the only class mDNS uses.
	ClassIN = uint16(0x0001)

	// UnicastResponse is the class-field bit requesting a unicast reply
	// in a question (RFC 6762 section 5.4). In a resource record the
	// same bit is the cache-flush flag.
	UnicastResponse = uint16(0x8000)
)

// DNS header flag masks (RFC 1035 section 4.1.1). Multicast DNS largely
// ignores the query/response framing nuances but the bits are preserved
// on the wire.
const (
	// FlagResponse is the QR bit, set in responses.
	FlagResponse = uint16(0x8000)

	// FlagAuthoritative is the AA bit.
	FlagAuthoritative = uint16(0x0400)

	// FlagTruncated is the TC bit.
	FlagTruncated = uint16(0x0200)

	// FlagRecursionDesired is the RD bit.
	FlagRecursionDesired = uint16(0x0100)

	// FlagRecursionAvailable is the RA bit.
	FlagRecursionAvailable = uint16(0x0080)

	// MaskOpcode selects the opcode subfield.
	MaskOpcode = uint16(0x7800)

	// MaskRCODE selects the response code subfield.
	MaskRCODE = uint16(0x000F)
)

// Errors returned by the codec. Decode errors are local to the entry or
// datagram being decoded; encode errors abort the current message build.
var (
	// ErrTruncated means there were not enough bytes to satisfy a
	// fixed-size read while decoding.
	ErrTruncated = errors.New("mdns: truncated message")

	// ErrMalformedName means a domain name violates the wire format: a
	// compression pointer points forward or out of range, a label is too
	// long, or the terminator is missing.
	ErrMalformedName = errors.New("mdns: malformed name")

	// ErrMalformedRecord means a declared record or TXT sub-string
	// length exceeds the available bytes.
	ErrMalformedRecord = errors.New("mdns: malformed record")

	// ErrCapacityExceeded means the destination buffer is too small for
	// the message being built.
	ErrCapacityExceeded = errors.New("mdns: buffer capacity exceeded")
)

// Header is the fixed 12-byte DNS message header.
type Header struct {
	// TransactionID correlates a query with its responses.
	TransactionID uint16

	// Flags holds the QR/opcode/AA/TC/RD/RA/RCODE bits.
	Flags uint16

	// Questions counts entries in the question section.
	Questions uint16

	// AnswerRRs counts entries in the answer section.
	AnswerRRs uint16

	// AuthorityRRs counts entries in the authority section.
	AuthorityRRs uint16

	// AdditionalRRs counts entries in the additional section.
	AdditionalRRs uint16
}

// SRV is the decoded payload of an SRV record. Target aliases the scratch
// buffer passed to [ParseSRV].
type SRV struct {
	// Priority is the target host selection priority, lower is preferred.
	Priority uint16

	// Weight breaks ties between targets of equal priority.
	Weight uint16

	// Port is the service port on the target host.
	Port uint16

	// Target is the target host name.
	Target []byte
}

// TXTPair is one decoded key[=value] attribute of a TXT record. Both
// fields alias the message buffer passed to [ParseTXT]. Value is empty
// when the attribute has no '=' separator.
type TXTPair struct {
	Key   []byte
	Value []byte
}

// SRVData describes an SRV payload to be synthesized into an answer.
type SRVData struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

// TXTData describes one key[=value] attribute to be synthesized into a
// TXT answer. An empty Value encodes the key alone.
type TXTData struct {
	Key   string
	Value string
}

// Record describes one resource record to be synthesized into an answer
// by [BuildDiscoveryAnswer] or [BuildQueryAnswer]. Exactly one of the
// payload fields is consulted, selected by Type.
type Record struct {
	// Name is the owner name. When empty, the question name is used.
	Name string

	// Type selects the payload field below.
	Type RecordType

	// TTL is the record time to live in seconds.
	TTL uint32

	// A is the address for [RecordTypeA].
	A net.IP

	// AAAA is the address for [RecordTypeAAAA].
	AAAA net.IP

	// PTR is the pointed-to name for [RecordTypePTR].
	PTR string

	// SRV is the payload for [RecordTypeSRV].
	SRV SRVData

	// TXT is the attribute list for [RecordTypeTXT].
	TXT []TXTData
}

// RecordCallback is invoked by [ScanMessage] once per question or
// resource record. For resource records, off and length delimit the
// record data (RDATA) within msg; for questions they delimit the encoded
// question name and ttl is zero. Compression pointers inside the data may
// reference earlier parts of msg, so the callback must hand the whole
// message buffer to the record parsers. The return value is accumulated
// by the scanner as the count of entries the callback consumed.
type RecordCallback func(from net.Addr, entry EntryType, transactionID uint16,
	rtype RecordType, rclass uint16, ttl uint32,
	msg []byte, off, length int) int
