// Package server implements the bridge server embedded in the host process.
//
// It accepts one active control connection on the reliable channel, reads
// framed commands, marshals each handler invocation onto the host loop, and
// writes framed responses back on the same connection. A second listener on
// the unreliable channel decodes OSC datagrams into realtime parameter
// writes with no response path.
//
// Request processing pipeline:
//
//	Accept conn → handleConn (read loop, FrameBuffer)
//	  → for each decoded command: hostloop.Call (bounded wait)
//	    → Middleware Chain → dispatch.Table.Handle → Response → write
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"daw-bridge/codec"
	"daw-bridge/config"
	"daw-bridge/dispatch"
	"daw-bridge/hostloop"
	"daw-bridge/message"
	"daw-bridge/middleware"
)

const readBufferSize = 64 * 1024

// RealtimeHandler applies one low-latency parameter write. It runs on the
// host loop, like command handlers.
type RealtimeHandler func(address string, value float64)

// Server is the bridge server. Construct with NewServer, register
// middlewares with Use, then call Serve.
type Server struct {
	// Logger receives structured log output. If nil, slog.Default() is used.
	Logger *slog.Logger

	// ResponseTimeout bounds the wait for a host-loop result per command.
	// Zero means config.ResponseTimeout.
	ResponseTimeout time.Duration

	// MaxFrameSize overrides the reliable-channel frame ceiling. Zero means
	// codec.MaxFrameSize.
	MaxFrameSize int

	table       *dispatch.Table
	loop        *hostloop.Loop
	middlewares []middleware.Middleware
	handler     dispatch.HandlerFunc
	realtime    RealtimeHandler

	listener net.Listener
	udpConn  *net.UDPConn
	wg       sync.WaitGroup
	shutdown atomic.Bool

	connMu     sync.Mutex
	activeConn net.Conn
}

// NewServer creates a server executing commands from table on loop.
func NewServer(table *dispatch.Table, loop *hostloop.Loop) *Server {
	return &Server{table: table, loop: loop}
}

// Use registers a middleware. Middlewares wrap the dispatch table in the
// order they are added, outermost first. Must be called before Serve.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// HandleRealtime sets the handler for decoded low-latency parameter writes.
// Must be called before Serve.
func (svr *Server) HandleRealtime(h RealtimeHandler) {
	svr.realtime = h
}

func (svr *Server) logger() *slog.Logger {
	if svr.Logger != nil {
		return svr.Logger
	}
	return slog.Default()
}

func (svr *Server) responseTimeout() time.Duration {
	if svr.ResponseTimeout > 0 {
		return svr.ResponseTimeout
	}
	return config.ResponseTimeout
}

// Serve listens on both channels and enters the accept loop. It blocks until
// Shutdown is called or the listener fails. udpAddr may be empty to disable
// the low-latency channel.
//
// Exactly one control connection is active at a time: connections are
// handled serially, and a peer connecting while another is active waits in
// the accept backlog until the current one closes.
func (svr *Server) Serve(tcpAddr, udpAddr string) error {
	listener, err := net.Listen("tcp", tcpAddr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", tcpAddr, err)
	}
	svr.listener = listener

	// Build the middleware chain once at startup, not per-request.
	svr.handler = middleware.Chain(svr.middlewares...)(svr.table.Handle)

	if udpAddr != "" {
		addr, err := net.ResolveUDPAddr("udp", udpAddr)
		if err != nil {
			listener.Close()
			return fmt.Errorf("server: resolve %s: %w", udpAddr, err)
		}
		svr.udpConn, err = net.ListenUDP("udp", addr)
		if err != nil {
			listener.Close()
			return fmt.Errorf("server: listen udp %s: %w", udpAddr, err)
		}
		svr.wg.Add(1)
		go svr.udpLoop()
	}

	svr.logger().Info("bridge server listening",
		"tcp_addr", listener.Addr().String(),
		"udp_addr", udpAddr,
		"commands", len(svr.table.Names()),
	)

	for {
		conn, err := listener.Accept()
		if err != nil {
			// During shutdown, closing the listener makes Accept fail.
			// The flag distinguishes intentional close from real errors.
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		svr.handleConn(conn)
	}
}

// Addr returns the reliable-channel listen address, useful with ":0".
func (svr *Server) Addr() net.Addr {
	if svr.listener == nil {
		return nil
	}
	return svr.listener.Addr()
}

// UDPAddr returns the low-latency listen address, or nil if disabled.
func (svr *Server) UDPAddr() net.Addr {
	if svr.udpConn == nil {
		return nil
	}
	return svr.udpConn.LocalAddr()
}

// handleConn runs the read loop for one control connection. The loop never
// times out while the connection is open. An idle client is normal; a dead
// peer surfaces as a zero-length read (EOF). Framing errors reset the buffer
// and continue; socket errors end the connection and return control to the
// accept loop so a new client may reconnect.
func (svr *Server) handleConn(conn net.Conn) {
	svr.wg.Add(1)
	defer svr.wg.Done()
	defer conn.Close()

	svr.connMu.Lock()
	svr.activeConn = conn
	svr.connMu.Unlock()
	defer func() {
		svr.connMu.Lock()
		svr.activeConn = nil
		svr.connMu.Unlock()
	}()

	logger := svr.logger().With("remote_addr", conn.RemoteAddr().String())
	logger.Info("control connection accepted")

	frames := codec.NewFrameBuffer(svr.MaxFrameSize)
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			logger.Info("control connection closed", "reason", err.Error())
			return
		}
		if err := frames.Append(buf[:n]); err != nil {
			// Oversized frame: fatal decode error. The buffer is already
			// reset; nothing is sent for that request, so the client relies
			// on its response timeout.
			logger.Warn("frame discarded", "error", err)
			continue
		}
		for {
			cmd := frames.NextObject()
			if cmd == nil {
				break
			}
			resp := svr.execute(cmd)
			data, err := codec.EncodeResponse(resp)
			if err != nil {
				logger.Error("response encode failed", "command", cmd.Name, "error", err)
				continue
			}
			if _, err := conn.Write(data); err != nil {
				logger.Warn("response write failed", "command", cmd.Name, "error", err)
				return
			}
		}
	}
}

// execute runs one command to completion. Unknown commands are answered
// without touching the host loop. Everything else is handed to the host
// loop and awaited with a bounded wait; timing out yields a
// timeout-category error and does not retract the scheduled invocation.
func (svr *Server) execute(cmd *message.Command) *message.Response {
	if cmd.Name == "" {
		return message.NewError(message.ErrCommandFailed("missing command name").Error(), cmd.ID)
	}
	if !svr.table.Has(cmd.Name) {
		return message.NewError(message.ErrUnknownCommand(cmd.Name).Error(), cmd.ID)
	}

	result, err := svr.loop.Call(svr.responseTimeout(), func() any {
		return svr.handler(context.Background(), cmd)
	})
	if err != nil {
		if errors.Is(err, hostloop.ErrCallTimeout) {
			svr.logger().Warn("command timed out on host loop", "command", cmd.Name)
			return message.NewError(message.ErrCommandTimeout(cmd.Name).Error(), cmd.ID)
		}
		return message.NewError(message.ErrCommandFailed("host loop unavailable: %v", err).Error(), cmd.ID)
	}
	return result.(*message.Response)
}

// udpLoop reads and decodes low-latency datagrams. Each decoded update is
// submitted to the host loop without waiting; no acknowledgment exists on
// this channel. Undecodable datagrams are dropped.
func (svr *Server) udpLoop() {
	defer svr.wg.Done()
	buf := make([]byte, 2048)
	for {
		n, _, err := svr.udpConn.ReadFromUDP(buf)
		if err != nil {
			if svr.shutdown.Load() {
				return
			}
			svr.logger().Warn("udp read failed", "error", err)
			return
		}
		update, err := codec.DecodeOSC(buf[:n])
		if err != nil {
			svr.logger().Debug("datagram dropped", "error", err)
			continue
		}
		if svr.realtime == nil {
			continue
		}
		address, value := update.Address, update.Value()
		if err := svr.loop.Submit(func() { svr.realtime(address, value) }); err != nil {
			return
		}
	}
}

// Shutdown stops the server: the shutdown flag is set first so the accept
// loop recognizes the intentional close, then the listeners and any active
// control connection are closed and in-flight handlers are awaited up to the
// timeout.
func (svr *Server) Shutdown(timeout time.Duration) error {
	svr.shutdown.Store(true)
	if svr.listener != nil {
		svr.listener.Close()
	}
	if svr.udpConn != nil {
		svr.udpConn.Close()
	}
	svr.connMu.Lock()
	if svr.activeConn != nil {
		svr.activeConn.Close()
	}
	svr.connMu.Unlock()

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("server: timeout waiting for connections to drain")
	}
}
