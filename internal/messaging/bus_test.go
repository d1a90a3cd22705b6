package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSend_RoutesToHandler(t *testing.T) {
	b := NewBus(time.Second, discardLogger())
	b.Handle(TypeGetCapture, func(_ context.Context, msg Message) (Response, error) {
		return OK(map[string]int{"tab": msg.TabID})
	})

	resp, err := b.Send(context.Background(), Message{Type: TypeGetCapture, TabID: 4})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	var got map[string]int
	if err := json.Unmarshal(resp.Result, &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got["tab"] != 4 {
		t.Errorf("tab = %d, want 4", got["tab"])
	}
}

func TestSend_UnknownType(t *testing.T) {
	b := NewBus(time.Second, discardLogger())

	resp, err := b.Send(context.Background(), Message{Type: "PING"})
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	if resp.Success {
		t.Error("expected unsuccessful response")
	}
}

func TestSend_HandlerErrorBecomesResponse(t *testing.T) {
	b := NewBus(time.Second, discardLogger())
	b.Handle(TypeSaveJob, func(context.Context, Message) (Response, error) {
		return Response{}, &model.AuthRequiredError{Reason: "no session token"}
	})

	resp, err := b.Send(context.Background(), Message{Type: TypeSaveJob})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.Success || resp.Kind != "auth_required" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSend_Timeout(t *testing.T) {
	b := NewBus(20*time.Millisecond, discardLogger())
	b.Handle(TypeSaveJob, func(ctx context.Context, _ Message) (Response, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return OK(nil)
	})

	start := time.Now()
	resp, err := b.Send(context.Background(), Message{Type: TypeSaveJob})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if resp.Success {
		t.Error("expected unsuccessful response")
	}
	if time.Since(start) > time.Second {
		t.Error("Send did not honor timeout")
	}
}

func TestSend_PanicIsRecovered(t *testing.T) {
	b := NewBus(time.Second, discardLogger())
	b.Handle(TypeJobDetected, func(context.Context, Message) (Response, error) {
		panic("boom")
	})

	resp, err := b.Send(context.Background(), Message{Type: TypeJobDetected})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.Success {
		t.Error("expected unsuccessful response")
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&model.AuthRequiredError{}, "auth_required"},
		{&model.ValidationError{Field: "company"}, "validation"},
		{&model.TransportError{Op: "insert", Err: errors.New("x")}, "transport"},
		{model.ErrNotFound, "not_found"},
		{model.ErrForbidden, "forbidden"},
		{errors.New("other"), "internal"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
