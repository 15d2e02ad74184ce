package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
)

// makeRequest attaches a buffer-backed logger the way withTraceID does.
func makeRequest(method, path string, buf *bytes.Buffer) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	l := zerolog.New(buf).With().Timestamp().Logger()
	return req.WithContext(l.WithContext(req.Context()))
}

// ---- Table test ----

func TestWithLogging_TableTest(t *testing.T) {
	tests := []struct {
		name             string
		method           string
		path             string
		handlerStatus    int
		handlerResponse  string
		checkLogContains []string
	}{
		{
			name:            "status read",
			method:          http.MethodGet,
			path:            "/api/status",
			handlerStatus:   http.StatusOK,
			handlerResponse: `{"kind":"idle"}`,
			checkLogContains: []string{
				`"method":"GET"`,
				`"uri":"/api/status"`,
				`"status":200`,
				`"duration":`,
				`"size":15`,
			},
		},
		{
			name:          "forced sync",
			method:        http.MethodPost,
			path:          "/api/sync",
			handlerStatus: http.StatusAccepted,
			checkLogContains: []string{
				`"method":"POST"`,
				`"status":202`,
				`"size":0`,
			},
		},
		{
			name:          "purge",
			method:        http.MethodDelete,
			path:          "/api/records/Note/1?purge=true",
			handlerStatus: http.StatusNoContent,
			checkLogContains: []string{
				`"uri":"/api/records/Note/1?purge=true"`,
				`"status":204`,
			},
		},
		{
			name:            "no pending conflict",
			method:          http.MethodPost,
			path:            "/api/conflict",
			handlerStatus:   http.StatusConflict,
			handlerResponse: "no conflict awaits a decision",
			checkLogContains: []string{
				`"status":409`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf bytes.Buffer

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
				if tt.handlerResponse != "" {
					_, _ = w.Write([]byte(tt.handlerResponse))
				}
			})

			rr := httptest.NewRecorder()
			withLogging(next).ServeHTTP(rr, makeRequest(tt.method, tt.path, &logBuf))

			assert.Equal(t, tt.handlerStatus, rr.Code)
			for _, expected := range tt.checkLogContains {
				assert.Contains(t, logBuf.String(), expected)
			}
		})
	}
}

func TestWithLogging_ResponseSize(t *testing.T) {
	var logBuf bytes.Buffer

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
		_, _ = w.Write([]byte(strings.Repeat("b", 24)))
	})

	withLogging(next).ServeHTTP(httptest.NewRecorder(), makeRequest(http.MethodGet, "/api/history", &logBuf))

	assert.Contains(t, logBuf.String(), `"size":1024`)
	assert.Contains(t, logBuf.String(), `"status":200`, "implicit status")
}

func TestWithLogging_PanicNotSuppressed(t *testing.T) {
	var logBuf bytes.Buffer

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	assert.Panics(t, func() {
		withLogging(next).ServeHTTP(httptest.NewRecorder(), makeRequest(http.MethodGet, "/panic", &logBuf))
	})
}

func TestWithLogging_NopLogger(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/nop", nil)
	req = req.WithContext(logger.Nop().WithContext(req.Context()))

	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() { withLogging(next).ServeHTTP(rr, req) })
	assert.Equal(t, http.StatusOK, rr.Code)
}
