//go:build unix

package mux

import (
	"context"
	"testing"
	"time"

	"github.com/pqsock/pqsock/internal/constants"
	"github.com/pqsock/pqsock/pkg/socket"
)

func newLoopbackListener(t *testing.T) (socket.Handle, int) {
	t.Helper()
	ln, err := socket.CreateListener(0, 10, true)
	if err != nil {
		t.Fatalf("CreateListener: %v", err)
	}
	t.Cleanup(func() { socket.Close(ln) })

	port, err := socket.BoundPort(ln)
	if err != nil {
		t.Fatalf("BoundPort: %v", err)
	}
	return ln, port
}

func testManagerReportsConnAttempt(t *testing.T, newManager func(socket.Handle, int) (Manager, error)) {
	ln, port := newLoopbackListener(t)
	m, err := newManager(ln, 8)
	if err != nil {
		t.Fatalf("newManager: %v", err)
	}
	defer m.Close()

	connDone := make(chan error, 1)
	go func() {
		h, err := socket.Connect("127.0.0.1", port)
		if err == nil {
			socket.Close(h)
		}
		connDone <- err
	}()

	got, err := m.WaitForEvent(context.Background())
	if err != nil {
		t.Fatalf("WaitForEvent: %v", err)
	}
	if got != constants.ConnAttempt {
		t.Errorf("WaitForEvent = %d, want ConnAttempt (%d)", got, constants.ConnAttempt)
	}
	<-connDone
}

func TestPollManagerReportsConnAttempt(t *testing.T) {
	testManagerReportsConnAttempt(t, NewPoll)
}

func TestSelectManagerReportsConnAttempt(t *testing.T) {
	testManagerReportsConnAttempt(t, NewSelect)
}

func testManagerReportsClientHandle(t *testing.T, newManager func(socket.Handle, int) (Manager, error)) {
	ln, port := newLoopbackListener(t)
	m, err := newManager(ln, 8)
	if err != nil {
		t.Fatalf("newManager: %v", err)
	}
	defer m.Close()

	clientCh := make(chan socket.Handle, 1)
	go func() {
		h, err := socket.Connect("127.0.0.1", port)
		if err != nil {
			return
		}
		clientCh <- h
	}()

	got, err := m.WaitForEvent(context.Background())
	if err != nil {
		t.Fatalf("WaitForEvent (accept): %v", err)
	}
	if got != constants.ConnAttempt {
		t.Fatalf("first WaitForEvent = %d, want ConnAttempt", got)
	}

	server, err := socket.Accept(ln)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer socket.Close(server)

	if err := m.Monitor(server); err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	client := <-clientCh
	defer socket.Close(client)

	if err := socket.SendExact(client, []byte("x")); err != nil {
		t.Fatalf("SendExact: %v", err)
	}

	got, err = m.WaitForEvent(context.Background())
	if err != nil {
		t.Fatalf("WaitForEvent (client ready): %v", err)
	}
	if got != server {
		t.Errorf("WaitForEvent = %d, want server handle %d", got, server)
	}
}

func TestPollManagerReportsClientHandle(t *testing.T) {
	testManagerReportsClientHandle(t, NewPoll)
}

func TestSelectManagerReportsClientHandle(t *testing.T) {
	testManagerReportsClientHandle(t, NewSelect)
}

func TestStopMonitoringPollRemovesHandle(t *testing.T) {
	ln, port := newLoopbackListener(t)
	m, err := NewPoll(ln, 8)
	if err != nil {
		t.Fatalf("NewPoll: %v", err)
	}
	defer m.Close()

	go func() {
		h, err := socket.Connect("127.0.0.1", port)
		if err == nil {
			socket.Close(h)
		}
	}()
	if _, err := m.WaitForEvent(context.Background()); err != nil {
		t.Fatalf("WaitForEvent: %v", err)
	}

	server, err := socket.Accept(ln)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer socket.Close(server)

	if err := m.Monitor(server); err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if err := m.StopMonitoring(server); err != nil {
		t.Fatalf("StopMonitoring: %v", err)
	}
	socket.Close(server)

	done := make(chan struct{})
	go func() {
		m.WaitForEvent(context.Background())
		close(done)
	}()
	select {
	case <-done:
		t.Error("WaitForEvent returned after StopMonitoring; handle should no longer be watched")
	case <-time.After(200 * time.Millisecond):
	}
}
