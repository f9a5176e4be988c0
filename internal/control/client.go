package control

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

var ErrCommandRequired = errors.New("control: command required")

// Client sends single requests to a running daemon.
type Client struct {
	Network string
	Address string
	Timeout time.Duration
}

// NewClient returns a unix-socket client for address.
func NewClient(address string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		Network: "unix",
		Address: strings.TrimSpace(address),
		Timeout: timeout,
	}
}

// Query sends one request and decodes the framed reply. An empty argument
// sends the bare command.
func (c *Client) Query(ctx context.Context, command, argument string) (Response, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return Response{}, ErrCommandRequired
	}
	conn, err := c.dial(ctx)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	req := Request{ProtocolVersion: ProtocolVersion, Command: command}
	if argument = strings.TrimSpace(argument); argument != "" {
		req.Argument = argument
		req.HasArgument = true
	}

	_ = conn.SetWriteDeadline(time.Now().Add(c.Timeout))
	if _, err := conn.Write([]byte(EncodeRequest(req))); err != nil {
		return Response{}, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.Timeout))
	return DecodeResponse(bufio.NewReader(conn))
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	network := c.Network
	if network == "" {
		network = "unix"
	}
	dialer := net.Dialer{Timeout: c.Timeout}
	return dialer.DialContext(ctx, network, c.Address)
}
