//go:build !linux

package server

import (
	qerrors "github.com/pqsock/pqsock/internal/errors"
	"github.com/pqsock/pqsock/pkg/mux"
	"github.com/pqsock/pqsock/pkg/socket"
)

func newEpollBackend(listener socket.Handle, maxConnections int) (mux.Manager, error) {
	return nil, qerrors.ErrUnsupportedPlatform
}
