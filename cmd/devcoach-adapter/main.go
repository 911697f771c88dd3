// Command devcoach-adapter bridges an assistant process's stdio
// JSON-RPC traffic to one authenticated connection on the
// coordination server's bus (§4.K). It exits as soon as stdin hits
// EOF or the bus connection closes, whichever comes first.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/DEVCOACH/internal/adapter"
)

func main() {
	fs := flag.NewFlagSet("devcoach-adapter", flag.ExitOnError)
	busURL := fs.String("bus-url", "ws://localhost:8080/ws", "coordination server bus URL")
	serverName := fs.String("name", "devcoach", "server name reported in the initialize response")
	fs.Parse(os.Args[1:])

	client, err := adapter.Dial(*busURL, os.Getenv("AUTH_TOKEN"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to bus: %v\n", err)
		os.Exit(1)
	}

	a := adapter.New(client, os.Stdin, os.Stdout, *serverName)
	if err := a.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "adapter exited with error: %v\n", err)
		os.Exit(1)
	}
}
