// Command pqcdemo is a minimal demonstration of the runtime cryptography
// toggle: the server sends a fixed banner immediately after the handshake,
// then both ends coordinate the toggle in-band with the literal tokens
// "PQC-ON" and "PQC-OFF" before flipping their own armed flag.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pqsock/pqsock/pkg/endpoint"
)

const banner = "\nPQC Test Server\n===============\n\nType \"PQC-ON\" or \"PQC-OFF\" to set cryptography.\n"

func main() {
	mode := flag.String("mode", "server", "server or client")
	host := flag.String("host", "127.0.0.1", "server host (client mode)")
	port := flag.Int("port", 777, "port")
	flag.Parse()

	switch *mode {
	case "server":
		runServer(*port)
	case "client":
		runClient(*host, *port)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q: use server or client\n", *mode)
		os.Exit(1)
	}
}

func runServer(port int) {
	ln, err := endpoint.Listen(port, 10, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
	defer ln.Close()
	fmt.Printf("pqcdemo server listening on port %d\n", port)

	ctx := context.Background()
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "accept/handshake failed, continuing to listen: %v\n", err)
			continue
		}
		go serveClient(ctx, conn)
	}
}

func serveClient(ctx context.Context, conn *endpoint.Endpoint) {
	defer conn.Close()

	if err := conn.Send(ctx, []byte(banner)); err != nil {
		fmt.Fprintf(os.Stderr, "send banner: %v\n", err)
		return
	}

	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			return
		}

		switch string(msg) {
		case "PQC-ON":
			conn.SetCryptography(true)
		case "PQC-OFF":
			conn.SetCryptography(false)
		default:
			fmt.Printf("[%v] %s\n", conn.Handle(), msg)
		}
	}
}

func runClient(host string, port int) {
	ctx := context.Background()
	conn, err := endpoint.Dial(ctx, host, port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	greeting, err := conn.Receive(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "receive banner: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(string(greeting))

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if err := conn.Send(ctx, []byte(line)); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			return
		}

		switch line {
		case "PQC-ON":
			conn.SetCryptography(true)
			fmt.Println("(encryption armed)")
		case "PQC-OFF":
			conn.SetCryptography(false)
			fmt.Println("(encryption disarmed)")
		}
	}
}
