//go:build linux

package server

import (
	"github.com/pqsock/pqsock/pkg/mux"
	"github.com/pqsock/pqsock/pkg/socket"
)

func newEpollBackend(listener socket.Handle, maxConnections int) (mux.Manager, error) {
	return mux.NewEpoll(listener, maxConnections)
}
