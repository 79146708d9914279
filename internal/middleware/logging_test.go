package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callmonitor-bridge/internal/common/logging"
)

type entry struct {
	level  string
	fields map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (l *recordingLogger) record(level string, fields []logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := map[string]interface{}{}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	l.entries = append(l.entries, entry{level, m})
}

func (l *recordingLogger) Debug(msg string, fields ...logging.Field) { l.record("debug", fields) }
func (l *recordingLogger) Info(msg string, fields ...logging.Field)  { l.record("info", fields) }
func (l *recordingLogger) Warn(msg string, fields ...logging.Field)  { l.record("warn", fields) }
func (l *recordingLogger) Error(msg string, err error, fields ...logging.Field) {
	l.record("error", fields)
}
func (l *recordingLogger) WithFields(fields ...logging.Field) logging.Logger { return l }
func (l *recordingLogger) WithContext(ctx context.Context) logging.Logger    { return l }

func TestLogging(t *testing.T) {
	logger := &recordingLogger{}

	router := mux.NewRouter()
	router.Use(Logging(logger))
	router.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	router.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for _, path := range []string{"/ok", "/missing", "/broken"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, logger.entries, 3)
	assert.Equal(t, "debug", logger.entries[0].level)
	assert.Equal(t, 200, logger.entries[0].fields["status"])
	assert.Equal(t, "/ok", logger.entries[0].fields["path"])
	assert.Equal(t, "warn", logger.entries[1].level)
	assert.Equal(t, 404, logger.entries[1].fields["status"])
	assert.Equal(t, "error", logger.entries[2].level)
}
