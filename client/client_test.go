package client

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daw-bridge/codec"
	"daw-bridge/config"
	"daw-bridge/dispatch"
	"daw-bridge/hostloop"
	"daw-bridge/message"
	"daw-bridge/server"
	"daw-bridge/session"
	"daw-bridge/state"
)

func testConfig(tcpPort, udpPort int) config.Config {
	return config.Config{
		Host:           "127.0.0.1",
		TCPPort:        tcpPort,
		UDPPort:        udpPort,
		ConnectTimeout: time.Second,
		RetryCount:     1,
	}
}

func newTestClient(cfg config.Config) *Client {
	c := NewClient(cfg)
	c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	c.ResponseTimeout = 2 * time.Second
	return c
}

// startBridge runs a session-backed server for the duration of the test.
func startBridge(t *testing.T, tcpAddr, udpAddr string) *server.Server {
	t.Helper()
	sess := session.New()
	table := dispatch.NewTable()
	sess.RegisterHandlers(table)

	loop := hostloop.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go loop.Run(ctx)

	svr := server.NewServer(table, loop)
	svr.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	svr.HandleRealtime(sess.ApplyParam)
	go svr.Serve(tcpAddr, udpAddr)
	time.Sleep(100 * time.Millisecond)
	t.Cleanup(func() { svr.Shutdown(time.Second) })
	return svr
}

func TestOfflineMockDeterminism(t *testing.T) {
	cfg := testConfig(19400, 19401) // nothing listening
	cfg.ConnectTimeout = 200 * time.Millisecond
	c := newTestClient(cfg)
	defer c.Close()

	start := time.Now()
	first, err := c.SendCommand("get_session_info", nil)
	require.NoError(t, err, "offline mode must not surface an error")
	second, err := c.SendCommand("get_session_info", nil)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 3*time.Second, "offline calls must fail fast")

	assert.Equal(t, first, second, "mock responses must be deterministic")
	result, ok := first.(map[string]any)
	require.True(t, ok, "unexpected mock shape %T", first)
	assert.Equal(t, true, result["offline_mode"], "mock results must be marked")
	assert.Equal(t, 120.0, result["tempo"])

	status := c.Status()
	assert.False(t, status.IsConnected)
	assert.Equal(t, state.Error.String(), status.State)
	assert.Equal(t, 2, status.QueueSize, "offline commands must be queued for replay")
}

func TestOfflineMockHonorsParams(t *testing.T) {
	cfg := testConfig(19400, 19401)
	cfg.ConnectTimeout = 200 * time.Millisecond
	c := newTestClient(cfg)
	defer c.Close()

	result, err := c.SendCommand("create_midi_track", map[string]any{"index": 2, "name": "Keys"})
	require.NoError(t, err)
	m := result.(map[string]any)
	assert.Equal(t, true, m["offline_mode"])
	assert.Equal(t, 2, m["index"])
	assert.Equal(t, "Keys", m["name"])
}

func TestSendCommandEndToEnd(t *testing.T) {
	startBridge(t, "127.0.0.1:19410", "")
	c := newTestClient(testConfig(19410, 19411))
	defer c.Close()

	result, err := c.SendCommand("set_tempo", map[string]any{"bpm": 140.0})
	require.NoError(t, err)
	m, ok := result.(map[string]any)
	require.True(t, ok, "unexpected result shape %T", result)
	assert.Equal(t, 140.0, m["tempo"])
	assert.NotContains(t, m, "offline_mode", "a live result must not carry the mock marker")
	assert.True(t, c.Status().IsConnected)

	// A host-side error surfaces as a classified error, and the connection
	// stays usable for the next command.
	_, err = c.SendCommand("get_track_info", map[string]any{"track_index": 9})
	require.Error(t, err)
	var bridgeErr *message.BridgeError
	require.ErrorAs(t, err, &bridgeErr)
	assert.Equal(t, message.CategoryHandler, bridgeErr.Category)
	assert.Contains(t, bridgeErr.Message, "index 9")

	_, err = c.SendCommand("get_session_info", nil)
	require.NoError(t, err)
}

// The exclusive send/receive section means a second caller's frame must not
// reach the wire until the first caller's response has been read. A raw
// server verifies this at the byte level: after reading the first command it
// watches the socket and must see silence until it answers.
func TestAtMostOneCommandInFlight(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:19420")
	require.NoError(t, err)
	defer ln.Close()

	violation := make(chan bool, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)

		serve := func(watch bool) bool {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				return false
			}
			cmd, err := codec.DecodeCommand(line)
			if err != nil {
				return false
			}
			early := false
			if watch {
				conn.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
				peek := make([]byte, 1)
				if n, _ := reader.Read(peek); n > 0 {
					early = true // second frame arrived before our response
				}
				conn.SetReadDeadline(time.Time{})
			}
			data, _ := codec.EncodeResponse(message.NewSuccess(map[string]any{"ok": true}, cmd.ID))
			conn.Write(data)
			return !early
		}

		ok := serve(true)
		violation <- !ok
		serve(false)
	}()

	c := newTestClient(testConfig(19420, 19421))
	defer c.Close()

	done := make(chan error, 2)
	go func() {
		_, err := c.SendCommand("first", nil)
		done <- err
	}()
	time.Sleep(100 * time.Millisecond)
	go func() {
		_, err := c.SendCommand("second", nil)
		done <- err
	}()

	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.False(t, <-violation, "second command was written before the first response arrived")
}

func TestDegradeAndRecover(t *testing.T) {
	svr := startBridge(t, "127.0.0.1:19430", "")
	c := newTestClient(testConfig(19430, 19431))
	c.ResponseTimeout = time.Second
	defer c.Close()

	_, err := c.SendCommand("get_session_info", nil)
	require.NoError(t, err)

	// Kill the host. The in-progress connection fails on the next use.
	require.NoError(t, svr.Shutdown(time.Second))
	_, err = c.SendCommand("set_tempo", map[string]any{"bpm": 90.0})
	require.Error(t, err, "the call on the dying connection must fail")
	var bridgeErr *message.BridgeError
	require.ErrorAs(t, err, &bridgeErr)

	// The call after that reconnects; with the host still down it degrades
	// to a queued mock response.
	result, err := c.SendCommand("set_tempo", map[string]any{"bpm": 95.0})
	require.NoError(t, err)
	assert.Equal(t, true, result.(map[string]any)["offline_mode"])
	assert.Equal(t, 1, c.Status().QueueSize)

	// Host returns. The next call reconnects, replays the queue, then runs.
	startBridge(t, "127.0.0.1:19430", "")
	result, err = c.SendCommand("get_session_info", nil)
	require.NoError(t, err)
	assert.NotContains(t, result.(map[string]any), "offline_mode")
	assert.Equal(t, 0, c.Status().QueueSize, "queued commands must be replayed on reconnect")
	assert.True(t, c.Status().IsConnected)
}

// A host that dies while the queue is being replayed must not take the next
// caller down with it: the call degrades to a queued mock result and the
// replayed command goes back on the queue.
func TestReplayFailureDegradesToMock(t *testing.T) {
	cfg := testConfig(19470, 19471)
	cfg.ConnectTimeout = 200 * time.Millisecond
	c := newTestClient(cfg)
	c.ResponseTimeout = time.Second
	defer c.Close()

	// Nothing listening yet: the first command is queued with a mock result.
	_, err := c.SendCommand("set_tempo", map[string]any{"bpm": 90.0})
	require.NoError(t, err)
	require.Equal(t, 1, c.Status().QueueSize)

	// A host appears, accepts the reconnect, reads the replayed frame, and
	// closes without answering.
	ln, err := net.Listen("tcp", "127.0.0.1:19470")
	require.NoError(t, err)
	defer ln.Close()
	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		bufio.NewReader(conn).ReadBytes('\n')
		conn.Close()
		close(accepted)
	}()

	result, err := c.SendCommand("get_session_info", nil)
	require.NoError(t, err, "a mid-replay failure must surface as degradation, not an error")
	assert.Equal(t, true, result.(map[string]any)["offline_mode"])

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("client never reconnected to the revived host")
	}
	// Both the replayed command and the new one are awaiting the next
	// reconnect, oldest first.
	assert.Equal(t, 2, c.Status().QueueSize)
	assert.False(t, c.Status().IsConnected)
}

func TestSendRealtimeWireFormat(t *testing.T) {
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:19441")
	require.NoError(t, err)
	sock, err := net.ListenUDP("udp", addr)
	require.NoError(t, err)
	defer sock.Close()

	c := newTestClient(testConfig(19440, 19441))
	defer c.Close()

	require.NoError(t, c.SendRealtime("/track/3/volume", 0.75))

	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2048)
	n, _, err := sock.ReadFromUDP(buf)
	require.NoError(t, err)

	update, err := codec.DecodeOSC(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, "/track/3/volume", update.Address)
	assert.True(t, update.IsFloat)
	assert.InDelta(t, 0.75, update.Value(), 1e-6)
}

func TestCloseResetsState(t *testing.T) {
	startBridge(t, "127.0.0.1:19450", "")
	c := newTestClient(testConfig(19450, 19451))

	_, err := c.SendCommand("get_session_info", nil)
	require.NoError(t, err)
	require.True(t, c.Status().IsConnected)

	require.NoError(t, c.Close())
	assert.Equal(t, state.Disconnected.String(), c.Status().State)
	assert.False(t, c.Status().IsConnected)
}
