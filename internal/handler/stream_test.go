package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunshreyas/Marketa-server/internal/middleware"
	"github.com/arunshreyas/Marketa-server/internal/model"
)

// runStream opens the SSE endpoint as userID, invokes act once the
// subscription is live, and returns the response after disconnecting.
func runStream(t *testing.T, f *apiFixture, userID string, act func()) *httptest.ResponseRecorder {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	ctx = context.WithValue(ctx, middleware.UserIDKey, userID)

	req := httptest.NewRequest(http.MethodGet, "/messages/stream/"+f.convID, nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.router.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool {
		return f.hub.Subscribers(f.convID) == 1
	}, time.Second, 5*time.Millisecond, "subscriber never registered")

	act()

	// Give the handler a beat to drain before disconnecting.
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done
	return rec
}

func TestStreamDeliversEvents(t *testing.T) {
	f := newAPIFixture(t)

	rec := runStream(t, f, f.userID, func() {
		f.hub.Publish(f.convID, model.EventMessageNew, map[string]string{"content": "hello stream"})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, ": connected\n\n"), "missing connected comment frame")
	assert.Contains(t, body, "event: message:new\n")
	assert.Contains(t, body, "hello stream")
}

func TestStreamHeartbeat(t *testing.T) {
	f := newAPIFixture(t)

	// The fixture heartbeat interval is 50ms, so an idle connection held
	// open briefly sees at least one keep-alive frame.
	rec := runStream(t, f, f.userID, func() {
		time.Sleep(120 * time.Millisecond)
	})

	assert.Contains(t, rec.Body.String(), "event: heartbeat\n")
}

func TestStreamUnregistersOnDisconnect(t *testing.T) {
	f := newAPIFixture(t)

	runStream(t, f, f.userID, func() {})
	assert.Equal(t, 0, f.hub.Subscribers(f.convID))
}

func TestStreamOutlivesServerWriteTimeout(t *testing.T) {
	f := newAPIFixture(t)

	asUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, f.userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Same wrapping as production: the logging middleware sits between the
	// server and the handler, so deadline control must reach through it.
	srv := httptest.NewUnstartedServer(middleware.Logging(testLogger())(asUser(f.router)))
	srv.Config.WriteTimeout = 200 * time.Millisecond
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/messages/stream/" + f.convID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The fixture heartbeat fires every 50ms. Frames arriving well past the
	// server's write timeout prove the stream is exempt from it; only the
	// client ends this connection.
	start := time.Now()
	deadline := start.Add(600 * time.Millisecond)
	var lastFrame time.Duration
	scanner := bufio.NewScanner(resp.Body)
	for time.Now().Before(deadline) && scanner.Scan() {
		if scanner.Text() == "event: heartbeat" {
			lastFrame = time.Since(start)
		}
	}
	assert.Greater(t, lastFrame, 400*time.Millisecond,
		"stream was cut before the client disconnected")

	resp.Body.Close()
	require.Eventually(t, func() bool {
		return f.hub.Subscribers(f.convID) == 0
	}, time.Second, 10*time.Millisecond, "subscriber not removed after client disconnect")
}

func TestStreamRejectsNonOwner(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/messages/stream/"+f.convID, nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, uuid.New().String()))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, f.hub.Subscribers(f.convID))
}

func TestStreamRejectsUnknownChannel(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/messages/stream/"+uuid.New().String(), nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, f.userID))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamRejectsInvalidChannelID(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/messages/stream/not-a-uuid", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, f.userID))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
