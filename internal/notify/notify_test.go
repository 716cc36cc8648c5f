package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlash(t *testing.T) {
	f := NewFlash()
	assert.Empty(t, f.Drain())

	require.NoError(t, f.Notify(context.Background(), Notification{Level: LevelSuccess, Title: "first"}))
	require.NoError(t, f.Notify(context.Background(), Notification{Level: LevelFailure, Title: "second"}))

	got := f.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "second", got[1].Title)
	assert.False(t, got[0].At.IsZero())
	assert.Empty(t, f.Drain(), "drain empties the buffer")
}

func TestFlashConcurrent(t *testing.T) {
	f := NewFlash()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = f.Notify(context.Background(), Notification{Title: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()
	assert.Len(t, f.Drain(), 50)
}

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, Notification) error { return f.err }

func TestMulti(t *testing.T) {
	a, b := NewFlash(), NewFlash()
	boom := errors.New("boom")
	m := Multi{a, failingNotifier{err: boom}, nil, b}

	err := m.Notify(context.Background(), Notification{Title: "hello"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.Drain(), 1)
	assert.Len(t, b.Drain(), 1, "later notifiers still run after a failure")

	assert.NoError(t, Multi{Nop{}}.Notify(context.Background(), Notification{}))
}

func TestFormatAlert(t *testing.T) {
	at := time.Date(2025, 10, 1, 12, 30, 0, 0, time.UTC)
	got := FormatAlert(Notification{
		Level:  LevelFailure,
		Title:  "Generation Failed",
		Detail: "menu service error: status 500: `boom`",
		At:     at,
	})
	assert.Equal(t, "❌ *Generation Failed*\n```\nmenu service error: status 500: 'boom'\n```\n_2025-10-01 12:30:00 UTC_", got)

	assert.Equal(t, "❌ *Generation Failed*", FormatAlert(Notification{Title: "Generation Failed"}))
}

// telegramStub answers getMe and sendMessage. When stall is set, sendMessage
// blocks until it is closed.
type telegramStub struct {
	mu    sync.Mutex
	sent  []map[string]string
	stall chan struct{}
}

func (s *telegramStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Menu","username":"menu_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if s.stall != nil {
				select {
				case <-s.stall:
				case <-r.Context().Done():
					return
				}
			}
			s.mu.Lock()
			s.sent = append(s.sent, map[string]string{
				"chat_id":    r.PostForm.Get("chat_id"),
				"text":       r.PostForm.Get("text"),
				"parse_mode": r.PostForm.Get("parse_mode"),
			})
			s.mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100,"type":"group"}}}`)
		default:
			fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}
}

func TestTelegram(t *testing.T) {
	stub := &telegramStub{}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	tg, err := NewTelegramWithEndpoint("123:abc", -100, server.URL+"/bot%s/%s", server.Client(), nil)
	require.NoError(t, err)

	require.NoError(t, tg.Notify(context.Background(), Notification{Level: LevelSuccess, Title: "Menu Generated Successfully!"}))
	require.NoError(t, tg.Notify(context.Background(), Notification{Level: LevelFailure, Title: "Generation Failed", Detail: "status 500"}))
	require.NoError(t, tg.Close())

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Len(t, stub.sent, 1, "only failures are forwarded")
	assert.Equal(t, "-100", stub.sent[0]["chat_id"])
	assert.Equal(t, "Markdown", stub.sent[0]["parse_mode"])
	assert.Contains(t, stub.sent[0]["text"], "*Generation Failed*")
	assert.Contains(t, stub.sent[0]["text"], "status 500")
}

func TestTelegramDoesNotBlockOnSlowAPI(t *testing.T) {
	stub := &telegramStub{stall: make(chan struct{})}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	tg, err := NewTelegramWithEndpoint("123:abc", -100, server.URL+"/bot%s/%s", server.Client(), nil)
	require.NoError(t, err)

	returned := make(chan error, 1)
	go func() {
		returned <- tg.Notify(context.Background(), Notification{Level: LevelFailure, Title: "Generation Failed"})
	}()
	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a stalled Bot API")
	}

	close(stub.stall)
	require.NoError(t, tg.Close())
	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Len(t, stub.sent, 1)
}

func TestTelegramSendTimeout(t *testing.T) {
	stub := &telegramStub{stall: make(chan struct{})}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()
	defer close(stub.stall)

	client := server.Client()
	client.Timeout = 100 * time.Millisecond
	tg, err := NewTelegramWithEndpoint("123:abc", -100, server.URL+"/bot%s/%s", client, nil)
	require.NoError(t, err)

	require.NoError(t, tg.Notify(context.Background(), Notification{Level: LevelFailure, Title: "Generation Failed"}))

	closed := make(chan struct{})
	go func() {
		_ = tg.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after the send timed out")
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Empty(t, stub.sent, "timed-out alert is dropped")
}

func TestTelegramBadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer server.Close()

	_, err := NewTelegramWithEndpoint("bad", 1, server.URL+"/bot%s/%s", server.Client(), nil)
	assert.Error(t, err)
}
