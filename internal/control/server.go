package control

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const maxRequestBytes = 4096

// ServerConfig configures the control listener.
type ServerConfig struct {
	Network     string
	Address     string
	ReadTimeout time.Duration
}

// DefaultServerConfig returns the unix-socket defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Network:     "unix",
		Address:     "/tmp/edgenetswitch.sock",
		ReadTimeout: 30 * time.Second,
	}
}

// Observer is told about every answered request.
type Observer func(req Request, resp Response)

// Server answers control requests one connection at a time.
type Server struct {
	cfg    ServerConfig
	source Source
	log    zerolog.Logger

	mu      sync.Mutex
	observe Observer
	active  net.Conn
}

func NewServer(cfg ServerConfig, src Source, log zerolog.Logger) *Server {
	if strings.TrimSpace(cfg.Network) == "" {
		cfg.Network = "unix"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultServerConfig().ReadTimeout
	}
	return &Server{
		cfg:    cfg,
		source: src,
		log:    log.With().Str("component", "control").Logger(),
	}
}

// OnRequest installs an observer for answered requests.
func (s *Server) OnRequest(fn Observer) {
	s.mu.Lock()
	s.observe = fn
	s.mu.Unlock()
}

// Listen opens the configured listener, clearing a stale unix socket file.
func (s *Server) Listen() (net.Listener, error) {
	addr := strings.TrimSpace(s.cfg.Address)
	if s.cfg.Network == "unix" {
		if err := os.Remove(addr); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return net.Listen(s.cfg.Network, addr)
}

// ListenAndServe opens the listener and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. Cancellation closes
// the listener and any connection in progress.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("control listening")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
			return
		}
		_ = ln.Close()
		s.closeActive()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.log.Info().Msg("control listener stopped")
				return nil
			}
			s.log.Warn().Err(err).Msg("control accept failed")
			continue
		}
		s.handleConn(ctx, conn)
	}
}

func (s *Server) setActive(conn net.Conn) {
	s.mu.Lock()
	s.active = conn
	s.mu.Unlock()
}

func (s *Server) closeActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		_ = s.active.Close()
	}
}

// handleConn answers one request per line until the client disconnects.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	s.setActive(conn)
	defer func() {
		s.setActive(nil)
		_ = conn.Close()
	}()
	if ctx.Err() != nil {
		return
	}
	s.log.Debug().Msg("control client connected")

	reader := bufio.NewReaderSize(conn, maxRequestBytes)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		line, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			_ = s.write(conn, Failure(CodeInvalidRequest, "request too large"))
			return
		}
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("control read failed")
			}
			return
		}

		req, resp := Handle(string(line), s.source)
		s.mu.Lock()
		observe := s.observe
		s.mu.Unlock()
		if observe != nil {
			observe(req, resp)
		}
		if !resp.Success {
			s.log.Debug().Str("code", resp.ErrorCode).Str("message", resp.Message).Msg("control request rejected")
		}
		if werr := s.write(conn, resp); werr != nil {
			s.log.Warn().Err(werr).Msg("control write failed")
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) write(conn net.Conn, resp Response) error {
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.ReadTimeout))
	_, err := conn.Write(EncodeResponse(resp))
	return err
}
