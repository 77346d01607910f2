// Package client implements the bridge client owned by the external control
// process.
//
// SendCommand is the reliable path: one JSON frame out over TCP, one framed
// response back, correlated by id and bounded by a response timeout.
// SendRealtime is the low-latency path: one OSC datagram out over UDP, no
// response, loss accepted.
//
// The protocol is strictly request/response, not pipelined; the host can
// only serve one marshaled call at a time. An exclusive section spans
// "write request, read response" and at most one command is ever in flight
// per connection. When the host is unreachable the client degrades to
// deterministic mock responses, so callers never need host-availability
// branches.
package client

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"daw-bridge/codec"
	"daw-bridge/config"
	"daw-bridge/message"
	"daw-bridge/state"
)

const reconnectBackoffBase = 250 * time.Millisecond

// Status is the operational snapshot returned by Status. Answering it never
// touches the network.
type Status struct {
	State       string `json:"state"`
	IsConnected bool   `json:"is_connected"`
	Host        string `json:"host"`
	TCPPort     int    `json:"tcp_port"`
	QueueSize   int    `json:"queue_size"`
}

// Client is the bridge client. Construct with NewClient; it connects lazily
// on first use and reconnects pull-based on the call after a failure.
type Client struct {
	// Logger receives structured log output. If nil, slog.Default() is used.
	Logger *slog.Logger

	// ResponseTimeout bounds the wait for each command response.
	// Zero means config.ResponseTimeout.
	ResponseTimeout time.Duration

	cfg     config.Config
	machine *state.Machine
	queue   *outboundQueue

	// mu is the exclusive send/receive section around each request, so two
	// callers never interleave frames on the same connection. It also makes
	// "at most one pending request per connection" structural: the next
	// request cannot start until the previous response (or its timeout) has
	// resolved.
	mu   sync.Mutex
	conn net.Conn

	udpMu   sync.Mutex
	udpConn net.Conn
}

// NewClient creates a client for the given bridge configuration.
func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:     cfg,
		machine: state.NewMachine(),
		queue:   newOutboundQueue(DefaultQueueCap),
	}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Client) responseTimeout() time.Duration {
	if c.ResponseTimeout > 0 {
		return c.ResponseTimeout
	}
	return config.ResponseTimeout
}

// StateMachine exposes the connection state machine so callers can Subscribe
// to (old, new, reason) transitions. This is the only sanctioned way to
// observe connectivity.
func (c *Client) StateMachine() *state.Machine {
	return c.machine
}

// Status reports the current operational state without any network call.
func (c *Client) Status() Status {
	current := c.machine.Current()
	return Status{
		State:       current.String(),
		IsConnected: current == state.Connected,
		Host:        c.cfg.Host,
		TCPPort:     c.cfg.TCPPort,
		QueueSize:   c.queue.len(),
	}
}

// SendCommand sends one command over the reliable channel and returns the
// response's result value. While the host is unreachable it returns the
// deterministic mock result instead (marked "offline_mode") and queues the
// command for replay after the next successful connect.
//
// Error responses come back as a *message.BridgeError carrying the
// host-supplied message; transport and timeout failures come back under
// their own categories.
func (c *Client) SendCommand(name string, params map[string]any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connectLocked(); err != nil {
			return c.degradeLocked(name, params, err), nil
		}
		c.flushQueueLocked()
		// The replay can lose the connection again (host died mid-flush).
		// Degrade like a failed connect rather than round-tripping on a
		// dead socket.
		if c.conn == nil {
			return c.degradeLocked(name, params,
				message.ErrConnectionFailed("connection lost during queue replay")), nil
		}
	}

	cmd := &message.Command{Name: name, Params: params, ID: uuid.NewString()}
	resp, err := c.roundTripLocked(cmd)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, message.ParseError(resp.Message)
	}
	return resp.Result, nil
}

// degradeLocked queues the command for replay and produces its mock result.
// Caller holds c.mu with no live connection.
func (c *Client) degradeLocked(name string, params map[string]any, err error) any {
	cmd := &message.Command{Name: name, Params: params}
	if c.queue.push(cmd) {
		c.logger().Debug("outbound queue full, dropped oldest command")
	}
	c.logger().Warn("host unreachable, returning mock response",
		"command", name, "error", err)
	return mockResponse(name, params)
}

// SendRealtime sends one float parameter update over the unreliable channel.
// Fire-and-forget: no response is read and loss is acceptable. It never
// waits behind an in-flight SendCommand.
func (c *Client) SendRealtime(address string, value float32) error {
	data, err := codec.EncodeOSCFloat(address, value)
	if err != nil {
		return err
	}
	return c.writeDatagram(data)
}

// SendRealtimeInt is SendRealtime for int32 parameters.
func (c *Client) SendRealtimeInt(address string, value int32) error {
	data, err := codec.EncodeOSCInt(address, value)
	if err != nil {
		return err
	}
	return c.writeDatagram(data)
}

// Close releases both sockets and returns the state machine to Disconnected.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	c.udpMu.Lock()
	if c.udpConn != nil {
		c.udpConn.Close()
		c.udpConn = nil
	}
	c.udpMu.Unlock()

	c.machine.Transition(state.Disconnected, "client closed")
	return nil
}

// connectLocked dials the reliable channel with the configured timeout and
// retry count, exponential backoff between attempts. Caller holds c.mu.
func (c *Client) connectLocked() error {
	switch c.machine.Current() {
	case state.Disconnected, state.Error:
		c.machine.Transition(state.Connecting, "connect attempt")
	}

	attempts := c.cfg.RetryCount
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(reconnectBackoffBase * time.Duration(1<<(attempt-1)))
		}
		conn, err := net.DialTimeout("tcp", c.cfg.TCPAddr(), c.cfg.ConnectTimeout)
		if err == nil {
			c.conn = conn
			c.machine.Transition(state.Connected, "connected to "+c.cfg.TCPAddr())
			c.logger().Info("connected to host", "addr", c.cfg.TCPAddr())
			return nil
		}
		lastErr = err
	}

	c.machine.Transition(state.Error, "connect failed: "+lastErr.Error())
	return message.ErrConnectionFailed("cannot reach host at %s: %v", c.cfg.TCPAddr(), lastErr)
}

// dropConnLocked marks the socket unusable after a transport failure. The
// next SendCommand attempts reconnect-then-send rather than failing
// immediately. Retry is pull-based, driven by the next caller.
func (c *Client) dropConnLocked(reason string) {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.machine.Transition(state.Reconnecting, reason)
}

// roundTripLocked writes one framed command and reads its framed response,
// both bounded by the response timeout. Caller holds c.mu.
func (c *Client) roundTripLocked(cmd *message.Command) (*message.Response, error) {
	data, err := codec.EncodeCommand(cmd)
	if err != nil {
		return nil, message.ErrInvalidResponse("cannot encode command %s: %v", cmd.Name, err)
	}

	deadline := time.Now().Add(c.responseTimeout())
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if _, err := c.conn.Write(data); err != nil {
		c.dropConnLocked("write failed: " + err.Error())
		return nil, message.ErrConnectionFailed("write to host failed: %v", err)
	}

	frames := codec.NewFrameBuffer(0)
	buf := make([]byte, 8192)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				c.dropConnLocked("response timeout")
				return nil, message.ErrConnectionTimeout("no response to %s within %s", cmd.Name, c.responseTimeout())
			}
			c.dropConnLocked("read failed: " + err.Error())
			return nil, message.ErrConnectionFailed("connection lost awaiting %s: %v", cmd.Name, err)
		}
		if err := frames.Append(buf[:n]); err != nil {
			c.dropConnLocked("oversized response frame")
			return nil, message.ErrInvalidResponse("response to %s exceeds frame ceiling", cmd.Name)
		}
		resp := frames.NextResponse()
		if resp == nil {
			continue // frame incomplete, keep reading
		}
		if resp.ID != "" && cmd.ID != "" && resp.ID != cmd.ID {
			// Stale correlation id. The protocol is strictly
			// request/response, so this can only be a response abandoned by
			// a previous timed-out call. Discard and keep reading.
			c.logger().Warn("discarding stale response", "got_id", resp.ID, "want_id", cmd.ID)
			continue
		}
		return resp, nil
	}
}

// flushQueueLocked replays commands queued while disconnected. Results are
// discarded. Any failure that drops the connection stops the replay and
// requeues the command for the next reconnect; the stop condition is the
// connection itself rather than the error's category, so the loop can never
// round-trip on a dead socket. Caller holds c.mu with a live connection.
func (c *Client) flushQueueLocked() {
	for {
		cmd := c.queue.pop()
		if cmd == nil {
			return
		}
		resp, err := c.roundTripLocked(cmd)
		if err != nil {
			if c.conn == nil {
				c.queue.requeue(cmd)
				return
			}
			c.logger().Warn("queued command rejected", "command", cmd.Name, "error", err)
			continue
		}
		if resp.IsError() {
			c.logger().Warn("queued command failed", "command", cmd.Name, "error", resp.Message)
		}
	}
}

// writeDatagram lazily opens the UDP socket and sends one datagram. The UDP
// socket has its own lock so realtime sends do not queue behind the
// reliable channel's in-flight command.
func (c *Client) writeDatagram(data []byte) error {
	c.udpMu.Lock()
	defer c.udpMu.Unlock()
	if c.udpConn == nil {
		conn, err := net.Dial("udp", c.cfg.UDPAddr())
		if err != nil {
			return message.ErrConnectionFailed("cannot open udp socket to %s: %v", c.cfg.UDPAddr(), err)
		}
		c.udpConn = conn
	}
	if _, err := c.udpConn.Write(data); err != nil {
		c.udpConn.Close()
		c.udpConn = nil
		return message.ErrConnectionFailed("udp send failed: %v", err)
	}
	return nil
}
