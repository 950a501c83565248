//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/mjansson/mdns
//

package mdns

import (
	"errors"
	"net"
	"os"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Link-local multicast groups assigned to mDNS (RFC 6762 section 3).
var (
	multicastGroupIPv4 = &net.UDPAddr{IP: net.IPv4(224, 0, 0, 251), Port: Port}
	multicastGroupIPv6 = &net.UDPAddr{IP: net.ParseIP("ff02::fb"), Port: Port}
)

// drainTimeout bounds the wait for further pending datagrams after the
// first one has been scanned in a receive pass.
const drainTimeout = time.Millisecond

// Socket is a UDP socket set up for mDNS/DNS-SD, together with the
// transaction id of the last query sent on it. The codec holds no other
// state: a Socket may be driven alongside others from separate
// goroutines, but a single Socket must not be used from two goroutines
// concurrently.
//
// Construct using [OpenIPv4] or [OpenIPv6].
type Socket struct {
	conn        *net.UDPConn
	group       *net.UDPAddr
	lastQueryID uint16
}

// OpenIPv4 opens and sets up an IPv4 socket for mDNS/DNS-SD. To send
// discovery requests and queries pass 0 as port to bind an ephemeral
// port. To run a responder listening for incoming discoveries and
// queries, pass [Port].
func OpenIPv4(port int) (*Socket, error) {
	var conn *net.UDPConn
	var err error
	if port == Port {
		// ListenMulticastUDP sets the reuse options so several
		// responders can share the mDNS port.
		conn, err = net.ListenMulticastUDP("udp4", nil, multicastGroupIPv4)
	} else {
		conn, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	}
	if err != nil {
		return nil, err
	}
	p := ipv4.NewPacketConn(conn)
	group := &net.UDPAddr{IP: multicastGroupIPv4.IP}
	for _, ifi := range multicastInterfaces() {
		// Joining can fail on interfaces without IPv4 connectivity.
		_ = p.JoinGroup(&ifi, group)
	}
	_ = p.SetMulticastTTL(1)
	_ = p.SetMulticastLoopback(true)
	return &Socket{conn: conn, group: multicastGroupIPv4}, nil
}

// OpenIPv6 opens and sets up an IPv6 socket for mDNS/DNS-SD. Port
// semantics are the same as for [OpenIPv4].
func OpenIPv6(port int) (*Socket, error) {
	var conn *net.UDPConn
	var err error
	if port == Port {
		conn, err = net.ListenMulticastUDP("udp6", nil, multicastGroupIPv6)
	} else {
		conn, err = net.ListenUDP("udp6", &net.UDPAddr{IP: net.IPv6unspecified, Port: port})
	}
	if err != nil {
		return nil, err
	}
	p := ipv6.NewPacketConn(conn)
	group := &net.UDPAddr{IP: multicastGroupIPv6.IP}
	for _, ifi := range multicastInterfaces() {
		_ = p.JoinGroup(&ifi, group)
	}
	_ = p.SetMulticastHopLimit(1)
	_ = p.SetMulticastLoopback(true)
	return &Socket{conn: conn, group: multicastGroupIPv6}, nil
}

func multicastInterfaces() []net.Interface {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var out []net.Interface
	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		out = append(out, ifi)
	}
	return out
}

// Close closes the underlying socket. Closing from another goroutine is
// the only way to interrupt a blocked receive.
func (s *Socket) Close() error {
	return s.conn.Close()
}

// LocalAddr returns the local address the socket is bound to.
func (s *Socket) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// SetReadDeadline bounds the blocking wait of the next receive call.
func (s *Socket) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// DiscoverySend builds a DNS-SD service enumeration request in buf and
// multicasts it.
func (s *Socket) DiscoverySend(buf []byte) error {
	n, err := BuildDiscoveryRequest(buf)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteToUDP(buf[:n], s.group)
	return err
}

// DiscoveryRecv scans the pending responses to a discovery request,
// forwarding every entry to cb unconditionally: discovery requests use
// transaction id zero, so responses are not correlated. The first read
// blocks until a datagram arrives; further pending datagrams are drained
// in the same pass. It returns the accumulated entry count.
func (s *Socket) DiscoveryRecv(buf []byte, cb RecordCallback) (int, error) {
	return s.recvPass(buf, nil, cb)
}

// QuerySend builds a single-question query for name and rtype in buf,
// assigns a fresh transaction id, multicasts the query, and returns the
// id so the caller can correlate responses. The id is also retained as
// this socket's last query id for [Socket.QueryRecv] filtering.
func (s *Socket) QuerySend(buf []byte, name string, rtype RecordType) (uint16, error) {
	transactionID := dns.Id()
	n, err := BuildQuery(buf, transactionID, name, rtype)
	if err != nil {
		return 0, err
	}
	if _, err := s.conn.WriteToUDP(buf[:n], s.group); err != nil {
		return 0, err
	}
	s.lastQueryID = transactionID
	return transactionID, nil
}

// QueryRecv scans the pending responses to a query. When onlyLastQuery
// is set, datagrams whose transaction id differs from the last id
// returned by [Socket.QuerySend] are dropped without being delivered;
// the call keeps blocking until a matching datagram arrives. It returns
// the accumulated entry count.
//
// The last-query filter is a heuristic: it correlates a single
// outstanding query per socket. Callers multiplexing several outstanding
// queries over one socket should filter by id in cb instead.
func (s *Socket) QueryRecv(buf []byte, onlyLastQuery bool, cb RecordCallback) (int, error) {
	var filter *uint16
	if onlyLastQuery {
		filter = &s.lastQueryID
	}
	return s.recvPass(buf, filter, cb)
}

// DiscoveryAnswer builds a response to a discovery request containing the
// single record rec and unicasts it to the requester.
func (s *Socket) DiscoveryAnswer(to net.Addr, buf []byte, rec Record) error {
	n, err := BuildDiscoveryAnswer(buf, rec)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteTo(buf[:n], to)
	return err
}

// QueryAnswer builds a response to the query identified by transactionID
// for the question (name, rtype), containing the single record rec, and
// unicasts it to the requester.
func (s *Socket) QueryAnswer(to net.Addr, buf []byte, transactionID uint16,
	name string, rtype RecordType, rec Record) error {
	n, err := BuildQueryAnswer(buf, transactionID, name, rtype, rec)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteTo(buf[:n], to)
	return err
}

// Listen performs one receive pass over the pending incoming discovery
// and query requests, dispatching every entry to cb. This is the service
// side that answers requests: the socket should have been opened on
// [Port]. The first read blocks until a datagram arrives; further pending
// datagrams are drained in the same pass. It returns the accumulated
// entry count.
func (s *Socket) Listen(buf []byte, cb RecordCallback) (int, error) {
	return s.recvPass(buf, nil, cb)
}

// recvPass reads one blocking datagram plus whatever else is already
// pending, scans each with [ScanMessage], and accumulates the delivered
// entry counts. A malformed datagram keeps the entries delivered before
// the malformation and does not abort the pass. Any read deadline is
// cleared when the pass returns.
func (s *Socket) recvPass(buf []byte, filterID *uint16, cb RecordCallback) (int, error) {
	defer s.conn.SetReadDeadline(time.Time{})
	total := 0
	scanned := false
	for {
		if scanned {
			if err := s.conn.SetReadDeadline(time.Now().Add(drainTimeout)); err != nil {
				return total, err
			}
		}
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if scanned && errors.Is(err, os.ErrDeadlineExceeded) {
				return total, nil
			}
			return total, err
		}
		if filterID != nil {
			c := cursor{buf: buf[:n]}
			transactionID, err := c.peekUint16()
			if err != nil || transactionID != *filterID {
				continue
			}
		}
		count, _ := ScanMessage(from, buf[:n], cb)
		total += count
		scanned = true
	}
}
