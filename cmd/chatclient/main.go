// Command chatclient connects to chatserver, sends the first line typed
// as its username, then relays stdin lines as chat messages while
// printing everything the server sends back.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pqsock/pqsock/pkg/endpoint"
)

func main() {
	host := flag.String("host", "127.0.0.1", "server host")
	port := flag.Int("port", 777, "server port")
	flag.Parse()

	ctx := context.Background()
	conn, err := endpoint.Dial(ctx, *host, *port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	go func() {
		for {
			msg, err := conn.Receive(ctx)
			if err != nil {
				fmt.Println("\ndisconnected from server.")
				os.Exit(0)
			}
			fmt.Printf("%s\n", msg)
		}
	}()

	fmt.Print("Username: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return
	}
	username := scanner.Text()
	if err := conn.Send(ctx, []byte(username)); err != nil {
		fmt.Fprintf(os.Stderr, "send username: %v\n", err)
		os.Exit(1)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if err := conn.Send(ctx, []byte(line)); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			return
		}
		if line == "LEAVE" || line == "SHUTDOWN" || line == "SHUTDOWN ALL" {
			return
		}
	}
}
