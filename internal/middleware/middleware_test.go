package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/rankparty/internal/testutil"
)

func TestLoggingCapturesStatus(t *testing.T) {
	logger, logs := testutil.RecordingLogger()
	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, []string{"http request"}, logs.Messages(slog.LevelInfo))
}

func TestLoggingPassesHijackThrough(t *testing.T) {
	hijacked := make(chan error, 1)
	handler := Logging(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hijacker, ok := w.(http.Hijacker)
		if !ok {
			hijacked <- errors.New("response writer is not a hijacker")
			return
		}

		conn, _, err := hijacker.Hijack()
		hijacked <- err
		if err == nil {
			_ = conn.Close()
		}
	}))

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err == nil {
		_ = resp.Body.Close()
	}
	assert.NoError(t, <-hijacked)
}

func TestRecoveryWritesErrorResponse(t *testing.T) {
	logger, logs := testutil.RecordingLogger()
	handler := Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		w.WriteHeader(http.StatusInternalServerError)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, []string{"panic recovered"}, logs.Messages(slog.LevelError))
}

func TestRecoveryReraisesAbort(t *testing.T) {
	handler := Recovery(testutil.NopLogger(), func(w http.ResponseWriter, _ *http.Request, _ any) {
		t.Error("abort must not be handled")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
