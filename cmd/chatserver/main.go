// Command chatserver is an event-loop chat server: the first message a
// client sends after the handshake is treated as its username, every
// message after that is broadcast to the rest of the room. Usernames and
// room membership are tracked here, in the application, not in the
// library — the library only exposes handle-keyed Send/Receive/Close.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/pqsock/pqsock/pkg/endpoint"
	"github.com/pqsock/pqsock/pkg/server"
	"github.com/pqsock/pqsock/pkg/socket"
)

type record struct {
	name string
	conn *endpoint.Endpoint
}

var (
	mu       sync.Mutex
	clients  = make(map[socket.Handle]*record)
	shutdown context.CancelFunc
)

func main() {
	port := flag.Int("port", 777, "port")
	flag.Parse()

	srv, err := server.Listen(*port, server.WithMultiplexerBackend(server.BackendEpoll))
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()

	fmt.Printf("Now listening for client connections on port: %d\n\n", *port)

	ctx, cancel := context.WithCancel(context.Background())
	shutdown = cancel

	if err := srv.Run(ctx, handle); err != nil {
		fmt.Fprintf(os.Stderr, "server loop exited: %v\n", err)
	}
}

func handle(ctx context.Context, conn *endpoint.Endpoint) error {
	msg, err := conn.Receive(ctx)
	if err != nil {
		dropClient(conn.Handle())
		return err
	}
	text := string(msg)

	mu.Lock()
	rec, registered := clients[conn.Handle()]
	mu.Unlock()

	if !registered {
		return registerClient(ctx, conn, text)
	}

	if text == "SHUTDOWN ALL" {
		broadcastSystem(socket.Handle(-1), "SERVER IS BEING CLOSED")
		fmt.Println("Server is shutting down by admin request.")
		shutdown()
		return errors.New("server shutdown")
	}

	if text == "LEAVE" || text == "SHUTDOWN" {
		dropClient(conn.Handle())
		broadcastSystem(conn.Handle(), rec.name+" left the chat.")
		fmt.Printf("Client socket %v disconnected.\n\n", conn.Handle())
		return errors.New("client left")
	}

	broadcastChat(conn.Handle(), rec.name, text)
	return nil
}

func registerClient(ctx context.Context, conn *endpoint.Endpoint, name string) error {
	mu.Lock()
	for _, r := range clients {
		if r.name == name {
			mu.Unlock()
			fmt.Printf("%s is already connected. Connection rejected.\n", name)
			conn.Send(ctx, []byte("The username "+name+" is already connected. Closing connection.."))
			return errors.New("duplicate username")
		}
	}
	clients[conn.Handle()] = &record{name: name, conn: conn}
	mu.Unlock()

	fmt.Println("Client admitted to chat")
	if err := conn.Send(ctx, []byte("\n\n============ Welcome to the chat "+name+"! ============")); err != nil {
		dropClient(conn.Handle())
		return err
	}

	broadcastSystem(conn.Handle(), name+" joined the chat!")
	return nil
}

func dropClient(h socket.Handle) {
	mu.Lock()
	delete(clients, h)
	mu.Unlock()
}

func broadcastChat(sender socket.Handle, name, text string) {
	mu.Lock()
	defer mu.Unlock()
	for h, r := range clients {
		if h == sender {
			continue
		}
		r.conn.Send(context.Background(), []byte(name+" : "+text))
	}
}

func broadcastSystem(sender socket.Handle, text string) {
	mu.Lock()
	defer mu.Unlock()
	for h, r := range clients {
		if h == sender {
			continue
		}
		r.conn.Send(context.Background(), []byte("------- "+text+" -------"))
	}
}
