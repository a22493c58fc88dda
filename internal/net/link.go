package net

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Scheme prefixes the share links handed to other users.
const Scheme = "inkboard://"

var ErrBadLink = errors.New("bad share link")

// Link returns the share link for a host at ip:port.
func Link(ip string, port int) string {
	return Scheme + net.JoinHostPort(ip, strconv.Itoa(port))
}

// IsLink reports whether s looks like a share link.
func IsLink(s string) bool {
	return strings.HasPrefix(s, Scheme)
}

// ParseLink returns the host:port address of a share link.
func ParseLink(link string) (string, error) {
	rest, ok := strings.CutPrefix(link, Scheme)
	if !ok {
		return "", fmt.Errorf("%w %q: missing %s", ErrBadLink, link, Scheme)
	}
	rest = strings.TrimSuffix(rest, "/")
	host, port, err := net.SplitHostPort(rest)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrBadLink, link, err)
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("%w %q: port %q", ErrBadLink, link, port)
	}
	if host == "" {
		return "", fmt.Errorf("%w %q: missing host", ErrBadLink, link)
	}
	return net.JoinHostPort(host, port), nil
}
