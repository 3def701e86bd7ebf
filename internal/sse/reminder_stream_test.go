package sse

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-scheduler/internal/logger"
	"event-scheduler/internal/models"
)

func reminder(id string) models.Reminder {
	return models.Reminder{EventID: id, Title: "Standup", StartTime: models.MustTimestamp("2025-01-01T09:00:00")}
}

func TestSubscribeReceivesAndUnsubscribesOnCancel(t *testing.T) {
	s := NewReminderStream(logger.NewWriterLogger(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())

	ch := s.Subscribe(ctx)
	assert.Equal(t, 1, s.ClientCount())

	require.NoError(t, s.Notify(context.Background(), reminder("evt-1")))
	got := <-ch
	assert.Equal(t, "evt-1", got.EventID)

	cancel()
	assert.Eventually(t, func() bool { return s.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-ch
	assert.False(t, open)
}

func TestNotifyDoesNotBlockOnFullClient(t *testing.T) {
	s := NewReminderStream(logger.NewWriterLogger(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			_ = s.Notify(context.Background(), reminder("evt"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a slow client")
	}
}

func TestServeHTTPStreamsReminders(t *testing.T) {
	s := NewReminderStream(logger.NewWriterLogger(io.Discard))
	srv := httptest.NewServer(s)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, s.Notify(ctx, reminder("evt-42")))

	var frame strings.Builder
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		frame.WriteString(line)
		if strings.HasPrefix(line, "data: {\"event_id\"") {
			break
		}
	}
	assert.Contains(t, frame.String(), "event: reminder\n")
	assert.Contains(t, frame.String(), `"event_id":"evt-42"`)
}
