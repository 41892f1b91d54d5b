// Command collatz is a single-threaded event-loop server built on the B0
// (edge-scalable) multiplexer backend. Each client sends a decimal integer
// and receives back the number of 3a+1 steps required to reach 1.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/pqsock/pqsock/pkg/endpoint"
	"github.com/pqsock/pqsock/pkg/server"
)

const maxIterations = 150

func collatzIterations(n int) int {
	iterations := 0
	for n != 1 && iterations < maxIterations {
		if n%2 == 0 {
			n = n / 2
		} else {
			n = 3*n + 1
		}
		iterations++
	}
	return iterations
}

func main() {
	port := flag.Int("port", 777, "port")
	flag.Parse()

	srv, err := server.Listen(*port, server.WithMultiplexerBackend(server.BackendEpoll))
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()

	fmt.Printf("collatz event-loop server listening on port %d\n", *port)

	ctx := context.Background()
	if err := srv.Run(ctx, handle); err != nil {
		fmt.Fprintf(os.Stderr, "server loop exited: %v\n", err)
		os.Exit(1)
	}
}

func handle(ctx context.Context, conn *endpoint.Endpoint) error {
	msg, err := conn.Receive(ctx)
	if err != nil {
		return err
	}

	n, err := strconv.Atoi(string(msg))
	if err != nil {
		return conn.Send(ctx, []byte("invalid integer"))
	}

	result := strconv.Itoa(collatzIterations(n))
	return conn.Send(ctx, []byte(result))
}
