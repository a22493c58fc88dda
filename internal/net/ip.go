package net

import (
	"net"

	"InkBoard/internal/logging"
)

// OutgoingIP returns the local address other machines can reach this host
// on. Without a default route it falls back to the first non-loopback
// IPv4 address.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		ip := firstIPv4().String()
		logging.Logger().Debug("no default route, using interface address", "ip", ip)
		return ip
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
