// Package dispatch maps command names to handler functions.
//
// The table is built explicitly at startup and passed by reference into the
// server. There is no ambient registration side effect, so behavior is
// reproducible and testable without import-order dependence. Every handler
// runs on the host loop and returns a result value or a classified error.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"daw-bridge/message"
)

// Handler executes one command on the host loop. It returns the result value
// serialized into the response, or an error converted into an error response.
type Handler func(p Params) (any, error)

// HandlerFunc is the dispatch-chain signature middleware wraps. It is the
// fully-resolved form: command in, response out, never nil.
type HandlerFunc func(ctx context.Context, cmd *message.Command) *message.Response

// Table is the command dispatch table.
//
// Registration happens at startup before Serve; Handle is then called
// concurrently-safely for the lifetime of the server.
type Table struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{handlers: make(map[string]Handler)}
}

// Register adds a handler under the given command name.
// Registering the same name twice is a programming error.
func (t *Table) Register(name string, h Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.handlers[name]; ok {
		return fmt.Errorf("dispatch: duplicate handler for %q", name)
	}
	t.handlers[name] = h
	return nil
}

// MustRegister is Register that panics on error, for startup wiring.
func (t *Table) MustRegister(name string, h Handler) {
	if err := t.Register(name, h); err != nil {
		panic(err)
	}
}

// Has reports whether a handler is registered for name. The server checks
// this before scheduling anything on the host loop, so unknown commands
// never touch the host thread.
func (t *Table) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.handlers[name]
	return ok
}

// Names returns the registered command names, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.handlers))
	for name := range t.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle executes the command's handler and converts the outcome into a
// Response echoing the correlation id. Handler errors become error responses
// carrying the classified message; they never propagate as raw failures.
func (t *Table) Handle(_ context.Context, cmd *message.Command) *message.Response {
	t.mu.RLock()
	h, ok := t.handlers[cmd.Name]
	t.mu.RUnlock()
	if !ok {
		return message.NewError(message.ErrUnknownCommand(cmd.Name).Error(), cmd.ID)
	}

	result, err := h(Params(cmd.Params))
	if err != nil {
		return message.NewError(err.Error(), cmd.ID)
	}
	return message.NewSuccess(result, cmd.ID)
}
