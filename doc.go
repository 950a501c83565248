// SPDX-License-Identifier: GPL-3.0-or-later

// Package mdns implements the wire protocol of Multicast DNS and
// DNS-Based Service Discovery (RFC 6762 and RFC 6763).
//
// The package is organized around caller-owned byte buffers. [ExtractName],
// [SkipName], [EqualName], [MakeName], [MakeNameRef], and [MakeNameWithRef]
// encode and decode domain names with RFC 1035 label compression.
// [ParseA], [ParseAAAA], [ParsePTR], [ParseSRV], and [ParseTXT] decode the
// record payloads used by DNS-SD. [BuildDiscoveryRequest], [BuildQuery],
// [BuildDiscoveryAnswer], and [BuildQueryAnswer] assemble complete
// datagrams, and [ScanMessage] walks an inbound datagram invoking a
// [RecordCallback] for every question and resource record it contains.
//
// [OpenIPv4] and [OpenIPv6] create a [*Socket] bound to the mDNS multicast
// group, with methods implementing the discovery and query verbs on top of
// the codec. The codec itself performs no I/O and keeps no state across
// calls, so a single buffer and socket may be reused for the lifetime of a
// client or responder.
package mdns
