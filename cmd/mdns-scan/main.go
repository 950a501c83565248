// SPDX-License-Identifier: GPL-3.0-or-later

// Command mdns-scan discovers DNS-SD services and issues one-shot mDNS
// queries on the local network.
package main

import (
	"net"
	"os"
	"strings"
	"time"

	"github.com/bassosimone/mdns"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const bufferSize = 2048

var (
	log = logrus.New()

	window  time.Duration
	useIPv6 bool
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "mdns-scan",
		Short:         "mDNS/DNS-SD discovery and query tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().DurationVarP(&window, "window", "w",
		3*time.Second, "how long to collect responses")
	root.PersistentFlags().BoolVarP(&useIPv6, "ipv6", "6", false,
		"use IPv6 instead of IPv4")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	discover := &cobra.Command{
		Use:   "discover",
		Short: "enumerate advertised services via the DNS-SD meta-query",
		Args:  cobra.NoArgs,
		RunE:  runDiscover,
	}

	query := &cobra.Command{
		Use:   "query <name> <type>",
		Short: "send one mDNS query and print the matching answers",
		Args:  cobra.ExactArgs(2),
		RunE:  runQuery,
	}

	root.AddCommand(discover, query)
	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func openSocket() (*mdns.Socket, error) {
	var sock *mdns.Socket
	var err error
	if useIPv6 {
		sock, err = mdns.OpenIPv6(0)
	} else {
		sock, err = mdns.OpenIPv4(0)
	}
	return sock, errors.Wrap(err, "opening mDNS socket")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	sock, err := openSocket()
	if err != nil {
		return err
	}
	defer sock.Close()

	buf := make([]byte, bufferSize)
	if err := sock.DiscoverySend(buf); err != nil {
		return errors.Wrap(err, "sending discovery request")
	}
	log.Debugf("discovery request sent, collecting for %s", window)
	collect(sock, false, time.Now().Add(window))
	return nil
}

// recordTypeFromString maps a record type name to the corresponding
// [mdns.RecordType] constant.
func recordTypeFromString(s string) (mdns.RecordType, error) {
	switch strings.ToUpper(s) {
	case "A":
		return mdns.RecordTypeA, nil
	case "PTR":
		return mdns.RecordTypePTR, nil
	case "TXT":
		return mdns.RecordTypeTXT, nil
	case "AAAA":
		return mdns.RecordTypeAAAA, nil
	case "SRV":
		return mdns.RecordTypeSRV, nil
	default:
		return mdns.RecordTypeIgnore, errors.Errorf("unsupported record type: %s", s)
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	rtype, err := recordTypeFromString(args[1])
	if err != nil {
		return err
	}
	sock, err := openSocket()
	if err != nil {
		return err
	}
	defer sock.Close()

	buf := make([]byte, bufferSize)
	transactionID, err := sock.QuerySend(buf, args[0], rtype)
	if err != nil {
		return errors.Wrap(err, "sending query")
	}
	log.Debugf("query sent with transaction id %d", transactionID)
	collect(sock, true, time.Now().Add(window))
	return nil
}

// collect runs receive passes until the deadline, printing every answer.
func collect(sock *mdns.Socket, onlyLastQuery bool, deadline time.Time) {
	buf := make([]byte, bufferSize)
	for time.Now().Before(deadline) {
		if err := sock.SetReadDeadline(deadline); err != nil {
			log.Debugf("setting read deadline: %s", err)
			return
		}
		var err error
		if onlyLastQuery {
			_, err = sock.QueryRecv(buf, true, printEntry)
		} else {
			_, err = sock.DiscoveryRecv(buf, printEntry)
		}
		if err != nil {
			log.Debugf("receive pass ended: %s", err)
			return
		}
	}
}

func printEntry(from net.Addr, entry mdns.EntryType, transactionID uint16,
	rtype mdns.RecordType, rclass uint16, ttl uint32,
	msg []byte, off, length int) int {
	if entry == mdns.EntryTypeQuestion {
		return 0
	}
	fields := logrus.Fields{"from": from, "ttl": ttl}
	var scratch [256]byte
	switch rtype {
	case mdns.RecordTypePTR:
		name, err := mdns.ParsePTR(msg, off, length, scratch[:])
		if err != nil {
			return 0
		}
		log.WithFields(fields).Infof("PTR %s", name)
	case mdns.RecordTypeSRV:
		srv, err := mdns.ParseSRV(msg, off, length, scratch[:])
		if err != nil {
			return 0
		}
		log.WithFields(fields).Infof("SRV %s:%d (priority %d, weight %d)",
			srv.Target, srv.Port, srv.Priority, srv.Weight)
	case mdns.RecordTypeA:
		ip, err := mdns.ParseA(msg, off, length)
		if err != nil {
			return 0
		}
		log.WithFields(fields).Infof("A %s", ip)
	case mdns.RecordTypeAAAA:
		ip, err := mdns.ParseAAAA(msg, off, length)
		if err != nil {
			return 0
		}
		log.WithFields(fields).Infof("AAAA %s", ip)
	case mdns.RecordTypeTXT:
		var records [16]mdns.TXTPair
		n, err := mdns.ParseTXT(msg, off, length, records[:])
		if err != nil && n == 0 {
			return 0
		}
		attrs := make([]string, 0, n)
		for _, kv := range records[:n] {
			attrs = append(attrs, string(kv.Key)+"="+string(kv.Value))
		}
		log.WithFields(fields).Infof("TXT %s", strings.Join(attrs, " "))
	default:
		log.WithFields(fields).Debugf("ignoring record type %d", rtype)
		return 0
	}
	return 1
}
