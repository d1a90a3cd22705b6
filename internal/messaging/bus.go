// Package messaging is request/response message passing between extension
// components: one handler per message type, one response per request.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Message types exchanged by the extension.
const (
	TypeJobDetected        = "JOB_DETECTED"
	TypeAuthStatusChange   = "AUTH_STATUS_CHANGE"
	TypeSaveJob            = "SAVE_JOB"
	TypeNavigationComplete = "NAVIGATION_COMPLETE"
	TypeGetCapture         = "GET_CAPTURE"
	TypeTabClosed          = "TAB_CLOSED"
)

// DefaultTimeout bounds a request when the bus is created without one.
const DefaultTimeout = 10 * time.Second

// Message is a request sent over the bus. TabID identifies the sending tab,
// zero when the sender is not a tab (the popup, the CLI).
type Message struct {
	Type    string          `json:"type"`
	TabID   int             `json:"tabId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers exactly one Message.
type Response struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	// Kind classifies Error for the caller: auth_required, validation, transport, not_found.
	Kind string `json:"kind,omitempty"`
}

// HandlerFunc serves one message.
type HandlerFunc func(ctx context.Context, msg Message) (Response, error)

// ErrUnknownType is returned for messages no handler is registered for.
var ErrUnknownType = errors.New("unknown message type")

// Bus routes messages to handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	timeout  time.Duration
	logger   *slog.Logger
}

func NewBus(timeout time.Duration, logger *slog.Logger) *Bus {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bus{
		handlers: make(map[string]HandlerFunc),
		timeout:  timeout,
		logger:   logger,
	}
}

// Handle registers h for msgType, replacing any previous handler.
func (b *Bus) Handle(msgType string, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[msgType] = h
}

// Send delivers msg and waits for its response, at most the bus timeout.
// Handler failures come back as an unsuccessful Response, not an error; the
// error return is for routing failures and timeouts.
func (b *Bus) Send(ctx context.Context, msg Message) (Response, error) {
	b.mu.RLock()
	h, ok := b.handlers[msg.Type]
	b.mu.RUnlock()
	if !ok {
		return Response{Success: false, Error: ErrUnknownType.Error()}, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// Buffered so a handler finishing after the timeout does not leak.
	done := make(chan Response, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("message handler panicked", "type", msg.Type, "panic", r)
				done <- Response{Success: false, Error: "internal error"}
			}
		}()
		resp, err := h(ctx, msg)
		if err != nil {
			b.logger.Debug("message handler failed", "type", msg.Type, "error", err)
			resp = ErrorResponse(err)
		}
		done <- resp
	}()

	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		return Response{Success: false, Error: "timed out"}, fmt.Errorf("%s: %w", msg.Type, ctx.Err())
	}
}

// OK builds a successful response carrying result.
func OK(result any) (Response, error) {
	if result == nil {
		return Response{Success: true}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return Response{}, fmt.Errorf("encoding result: %w", err)
	}
	return Response{Success: true, Result: data}, nil
}
