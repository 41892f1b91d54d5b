//go:build unix

package socket

import (
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/pqsock/pqsock/internal/constants"
	qerrors "github.com/pqsock/pqsock/internal/errors"
)

// CreateListener creates, binds, and listens on a TCP socket for the given
// port. backlog bounds the pending-connection queue; allow_reuse sets
// SO_REUSEADDR before bind so a restarted server does not stall in the
// kernel's TIME_WAIT linger state, mirroring Server::allowPortReuse in the
// original implementation.
func CreateListener(port, backlog int, allowReuse bool) (Handle, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return 0, qerrors.NewTransportError("socket.CreateListener", err)
	}

	if allowReuse {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return 0, qerrors.NewTransportError("socket.CreateListener", err)
		}
	}

	addr := unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return 0, qerrors.NewTransportError("socket.CreateListener", err)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return 0, qerrors.NewTransportError("socket.CreateListener", err)
	}

	return fd, nil
}

// Connect opens a blocking TCP connection to host:port.
func Connect(host string, port int) (Handle, error) {
	ip, err := resolveIPv4(host)
	if err != nil {
		return 0, qerrors.NewTransportError("socket.Connect", err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return 0, qerrors.NewTransportError("socket.Connect", err)
	}

	addr := unix.SockaddrInet4{Port: port, Addr: ip}
	if err := unix.Connect(fd, &addr); err != nil {
		unix.Close(fd)
		return 0, qerrors.NewTransportError("socket.Connect", err)
	}

	return fd, nil
}

func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	ips, err := net.LookupIP(host)
	if err != nil {
		return out, err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			copy(out[:], v4)
			return out, nil
		}
	}
	return out, &net.AddrError{Err: "no IPv4 address found", Addr: host}
}

// Accept blocks until a new client connects on listener and returns its
// handle. A failed accept is never fatal to the caller: the acceptor loop
// keeps listening.
func Accept(listener Handle) (Handle, error) {
	fd, _, err := unix.Accept(listener)
	if err != nil {
		return constants.SocketError, qerrors.NewTransportError("socket.Accept", err)
	}
	return fd, nil
}

// SendExact writes all of b to h, looping until every byte is transmitted.
// A partial send is never surfaced to the caller; it either completes or
// fails with TransportClosed/TransportError.
func SendExact(h Handle, b []byte) error {
	for len(b) > 0 {
		n, err := unix.Write(h, b)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EPIPE || err == unix.ECONNRESET {
				return qerrors.ErrTransportClosed
			}
			return qerrors.NewTransportError("socket.SendExact", err)
		}
		if n == 0 {
			return qerrors.ErrTransportClosed
		}
		b = b[n:]
	}
	return nil
}

// RecvExact blocks until exactly n bytes have been read from h.
func RecvExact(h Handle, n int) ([]byte, error) {
	buf := make([]byte, n)
	read := 0
	for read < n {
		m, err := unix.Read(h, buf[read:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, qerrors.NewTransportError("socket.RecvExact", err)
		}
		if m == 0 {
			return nil, qerrors.ErrTransportClosed
		}
		read += m
	}
	return buf, nil
}

// Close releases the OS handle.
func Close(h Handle) error {
	if err := unix.Close(h); err != nil {
		return qerrors.NewTransportError("socket.Close", err)
	}
	return nil
}

// String renders a handle the way log lines and debug output want it.
func String(h Handle) string {
	return strconv.Itoa(h)
}

// BoundPort returns the local port a listener is bound to; useful when
// CreateListener was called with port 0 to let the kernel pick one.
func BoundPort(h Handle) (int, error) {
	sa, err := unix.Getsockname(h)
	if err != nil {
		return 0, qerrors.NewTransportError("socket.BoundPort", err)
	}
	addr, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, qerrors.NewTransportError("socket.BoundPort", qerrors.ErrTransportError)
	}
	return addr.Port, nil
}
