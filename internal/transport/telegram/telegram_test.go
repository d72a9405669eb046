package telegram

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"tgpublish/internal/transport"
	logx "tgpublish/pkg/logx"
)

func TestNewRejectsEmptyToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestNewOffline(t *testing.T) {
	t.Parallel()
	s, err := New(Config{Token: "123:abc", Offline: true}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s == nil {
		t.Fatal("nil sender")
	}
}

func TestTranslateFloodWait(t *testing.T) {
	t.Parallel()

	flood := tele.FloodError{
		Error:      &tele.Error{Code: 429, Description: "Too Many Requests: retry after 61"},
		RetryAfter: 61,
	}

	var throttled *transport.ThrottledError
	if err := translate(flood); !errors.As(err, &throttled) {
		t.Fatalf("translate = %v, want ThrottledError", err)
	} else if throttled.RetryAfter != 61*time.Second {
		t.Fatalf("retry_after = %v, want 61s verbatim", throttled.RetryAfter)
	}

	// Wrapped floods still classify.
	if err := translate(fmt.Errorf("send: %w", flood)); !errors.As(err, &throttled) {
		t.Fatalf("wrapped flood = %v, want ThrottledError", err)
	}
}

func TestTranslatePermanentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   error
		want any
	}{
		{name: "unauthorized is fatal", in: &tele.Error{Code: 401, Description: "Unauthorized"}, want: new(*transport.FatalError)},
		{name: "forbidden is permission", in: &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}, want: new(*transport.PermissionError)},
		{name: "kicked is permission", in: &tele.Error{Code: 400, Description: "Bad Request: bot was kicked from the supergroup chat"}, want: new(*transport.PermissionError)},
		{name: "chat not found is permission", in: &tele.Error{Code: 400, Description: "Bad Request: chat not found"}, want: new(*transport.PermissionError)},
		{name: "no rights is permission", in: &tele.Error{Code: 400, Description: "Bad Request: have no rights to send a message"}, want: new(*transport.PermissionError)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := translate(tt.in)
			switch target := tt.want.(type) {
			case **transport.FatalError:
				if !errors.As(err, target) {
					t.Fatalf("translate = %v, want FatalError", err)
				}
			case **transport.PermissionError:
				if !errors.As(err, target) {
					t.Fatalf("translate = %v, want PermissionError", err)
				}
			}
			// The original error must remain reachable for logging.
			var te *tele.Error
			if !errors.As(err, &te) {
				t.Fatalf("cause lost: %v", err)
			}
		})
	}
}

func TestTranslatePassthrough(t *testing.T) {
	t.Parallel()

	if err := translate(nil); err != nil {
		t.Fatalf("translate(nil) = %v", err)
	}

	// Retryable server-side and network errors pass through untouched so the
	// classifier treats them as transient.
	in := &tele.Error{Code: 502, Description: "Bad Gateway"}
	if err := translate(in); !errors.Is(err, in) {
		t.Fatalf("translate = %v, want passthrough", err)
	}
	netErr := errors.New("dial tcp: i/o timeout")
	if err := translate(netErr); !errors.Is(err, netErr) {
		t.Fatalf("translate = %v, want passthrough", err)
	}
}
