//go:build !unix

package socket

import (
	"strconv"

	qerrors "github.com/pqsock/pqsock/internal/errors"
)

// CreateListener is unimplemented on this platform; the raw socket wrapper
// is built directly on golang.org/x/sys/unix syscalls (see socket_unix.go)
// and has no portable non-unix backend.
func CreateListener(port, backlog int, allowReuse bool) (Handle, error) {
	return 0, qerrors.ErrUnsupportedPlatform
}

// Connect is unimplemented on this platform.
func Connect(host string, port int) (Handle, error) {
	return 0, qerrors.ErrUnsupportedPlatform
}

// Accept is unimplemented on this platform.
func Accept(listener Handle) (Handle, error) {
	return 0, qerrors.ErrUnsupportedPlatform
}

// SendExact is unimplemented on this platform.
func SendExact(h Handle, b []byte) error {
	return qerrors.ErrUnsupportedPlatform
}

// RecvExact is unimplemented on this platform.
func RecvExact(h Handle, n int) ([]byte, error) {
	return nil, qerrors.ErrUnsupportedPlatform
}

// Close is unimplemented on this platform.
func Close(h Handle) error {
	return qerrors.ErrUnsupportedPlatform
}

// String renders a handle for log lines.
func String(h Handle) string {
	return strconv.Itoa(h)
}
