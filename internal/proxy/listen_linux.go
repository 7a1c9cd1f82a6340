//go:build linux

package proxy

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listenBacklog builds the listening socket by hand, since net.Listen
// always uses the kernel's somaxconn as the backlog.
func listenBacklog(addr string, backlog int) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	var fd int
	switch ip4 := tcpAddr.IP.To4(); {
	case ip4 != nil:
		sa := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa.Addr[:], ip4)
		fd, err = bindSocket(unix.AF_INET, sa, backlog, false)
	case tcpAddr.IP != nil:
		sa := &unix.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa.Addr[:], tcpAddr.IP.To16())
		if tcpAddr.Zone != "" {
			ifi, err := net.InterfaceByName(tcpAddr.Zone)
			if err != nil {
				return nil, err
			}
			sa.ZoneId = uint32(ifi.Index) //nolint:gosec // Interface indexes are small.
		}
		fd, err = bindSocket(unix.AF_INET6, sa, backlog, true)
	default:
		// Unspecified address: prefer a dual-stack socket, fall back to
		// IPv4 on hosts without IPv6.
		fd, err = bindSocket(unix.AF_INET6, &unix.SockaddrInet6{Port: tcpAddr.Port}, backlog, false)
		if errors.Is(err, unix.EAFNOSUPPORT) {
			fd, err = bindSocket(unix.AF_INET, &unix.SockaddrInet4{Port: tcpAddr.Port}, backlog, false)
		}
	}
	if err != nil {
		return nil, err
	}

	f := os.NewFile(uintptr(fd), "tcp:"+addr)
	defer f.Close()

	return net.FileListener(f)
}

func bindSocket(domain int, sa unix.Sockaddr, backlog int, v6only bool) (int, error) {
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if domain == unix.AF_INET6 {
		v := 0
		if v6only {
			v = 1
		}
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, v); err != nil {
			_ = unix.Close(fd)
			return -1, fmt.Errorf("setsockopt IPV6_V6ONLY: %w", err)
		}
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	return fd, nil
}
