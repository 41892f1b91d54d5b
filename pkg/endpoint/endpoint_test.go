//go:build unix

package endpoint

import (
	"bytes"
	"context"
	"testing"

	"github.com/pqsock/pqsock/internal/constants"
	qerrors "github.com/pqsock/pqsock/internal/errors"
	"github.com/pqsock/pqsock/pkg/socket"
)

func dialAccept(t *testing.T) (*Endpoint, *Endpoint) {
	t.Helper()

	ln, err := Listen(0, 10, true)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	port, err := boundPort(t, ln)
	if err != nil {
		t.Fatalf("boundPort: %v", err)
	}

	serverCh := make(chan *Endpoint, 1)
	serverErrCh := make(chan error, 1)
	go func() {
		srv, err := ln.Accept(context.Background())
		serverCh <- srv
		serverErrCh <- err
	}()

	client, err := Dial(context.Background(), "127.0.0.1", port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	server := <-serverCh
	if err := <-serverErrCh; err != nil {
		t.Fatalf("Accept: %v", err)
	}

	return client, server
}

func boundPort(t *testing.T, ln *Listener) (int, error) {
	t.Helper()
	return socket.BoundPort(ln.Handle())
}

func TestSendReceiveRoundTripArmed(t *testing.T) {
	client, server := dialAccept(t)
	defer client.Close()
	defer server.Close()

	if err := client.Send(context.Background(), []byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := server.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestToggleCryptographyOffThenOn(t *testing.T) {
	client, server := dialAccept(t)
	defer client.Close()
	defer server.Close()

	if err := client.SetCryptography(false); err != nil {
		t.Fatalf("client SetCryptography(false): %v", err)
	}
	if err := server.SetCryptography(false); err != nil {
		t.Fatalf("server SetCryptography(false): %v", err)
	}

	if err := client.Send(context.Background(), []byte("ping")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := server.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got) != "ping" {
		t.Errorf("got %q, want %q", got, "ping")
	}

	if err := client.SetCryptography(true); err != nil {
		t.Fatalf("client SetCryptography(true): %v", err)
	}
	if err := server.SetCryptography(true); err != nil {
		t.Fatalf("server SetCryptography(true): %v", err)
	}

	if err := client.Send(context.Background(), []byte("pong again")); err != nil {
		t.Fatalf("Send after re-arming: %v", err)
	}
	got, err = server.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive after re-arming: %v", err)
	}
	if string(got) != "pong again" {
		t.Errorf("got %q, want %q", got, "pong again")
	}
}

func TestSendRejectsOversizedPayload(t *testing.T) {
	client, server := dialAccept(t)
	defer client.Close()
	defer server.Close()

	oversized := bytes.Repeat([]byte("x"), constants.MaxPlaintextSize+1)
	if err := client.Send(context.Background(), oversized); err == nil {
		t.Error("expected ErrPayloadTooLarge for a 501-byte payload")
	} else if !qerrors.Is(err, qerrors.ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge in chain, got %v", err)
	}
}

func TestSendMaxSizePayloadSucceeds(t *testing.T) {
	client, server := dialAccept(t)
	defer client.Close()
	defer server.Close()

	payload := bytes.Repeat([]byte("y"), constants.MaxPlaintextSize)
	if err := client.Send(context.Background(), payload); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := server.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("round-tripped max-size payload did not match")
	}
}

func TestEmptyPayloadRoundTrip(t *testing.T) {
	client, server := dialAccept(t)
	defer client.Close()
	defer server.Close()

	if err := client.Send(context.Background(), []byte{}); err != nil {
		t.Fatalf("Send empty: %v", err)
	}
	got, err := server.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive empty: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty payload, got %q", got)
	}
}

func TestOperationsAfterCloseFail(t *testing.T) {
	client, server := dialAccept(t)
	defer server.Close()

	client.Close()

	if err := client.Send(context.Background(), []byte("x")); !qerrors.Is(err, qerrors.ErrBadState) {
		t.Errorf("expected ErrBadState after close, got %v", err)
	}
	if _, err := client.Receive(context.Background()); !qerrors.Is(err, qerrors.ErrBadState) {
		t.Errorf("expected ErrBadState after close, got %v", err)
	}
}

func TestHandshakeFailsWhenPeerDiesImmediately(t *testing.T) {
	ln, err := Listen(0, 10, true)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	port, err := boundPort(t, ln)
	if err != nil {
		t.Fatalf("boundPort: %v", err)
	}

	go func() {
		h, err := socket.Connect("127.0.0.1", port)
		if err != nil {
			return
		}
		socket.Close(h)
	}()

	_, err = ln.Accept(context.Background())
	if err == nil {
		t.Fatal("expected Accept's handshake to fail against an immediately closed peer")
	}

	// The acceptor itself must still be usable afterward.
	if ln.Handle() == 0 {
		t.Error("listener handle should remain valid after a failed handshake")
	}
}
