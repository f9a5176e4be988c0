package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danmuck/edgenetswitch/internal/config"
	"github.com/danmuck/edgenetswitch/internal/control"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("edgectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	socket := fs.String("socket", config.Default().Control.Socket, "daemon control socket")
	timeout := fs.Duration("timeout", 2*time.Second, "dial and read timeout")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: edgectl [-socket path] [-timeout d] <status|health|metrics|version|help> [arg]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 2
	}

	command := strings.TrimSpace(fs.Arg(0))
	argument := ""
	if fs.NArg() == 2 {
		argument = fs.Arg(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := control.NewClient(*socket, *timeout).Query(ctx, command, argument)
	if err != nil {
		fmt.Fprintf(stderr, "edgectl: %s: %v\n", *socket, err)
		return 1
	}
	if !resp.Success {
		fmt.Fprintf(stderr, "edgectl: %s: %s\n", resp.ErrorCode, resp.Message)
		return 1
	}
	if resp.Payload != "" {
		fmt.Fprintln(stdout, resp.Payload)
	}
	return 0
}
