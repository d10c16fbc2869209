package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/logstream-io/logstream/internal/config"
	"github.com/logstream-io/logstream/internal/model"
)

type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.payloads = append(f.payloads, cp)
	return nil
}

type fakeReader struct {
	records []model.LogRecord
	err     error
}

func (f *fakeReader) ListNewerThan(ctx context.Context, since time.Time, limit int) ([]model.LogRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.LogRecord
	for _, r := range f.records {
		if r.Date.After(since) {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReader) ListRecent(ctx context.Context, limit int) ([]model.LogRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server:  config.ServerConfig{Port: "0"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, enq Enqueuer, reader LogReader) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	return New(cfg, enq, reader, nil, zerolog.Nop())
}

func postIngest(t *testing.T, s *Server, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(body))
	req.Header.Set(echoHeaderContentType, "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestIngestBatchFanOut(t *testing.T) {
	t.Parallel()

	enq := &fakeEnqueuer{}
	s := newTestServer(t, nil, enq, &fakeReader{})

	rec := postIngest(t, s, `[{"message":"boot","logLevel":"INFO","sourceApp":"app1"},"[2025-01-01T00:00:00Z] [ERROR] [t1] disk full"]`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, enq.payloads, 2, "each array element becomes its own queue message")
	require.JSONEq(t, `{"message":"boot","logLevel":"INFO","sourceApp":"app1"}`, string(enq.payloads[0]))
	require.Equal(t, `"[2025-01-01T00:00:00Z] [ERROR] [t1] disk full"`, string(enq.payloads[1]))
}

func TestIngestWrapsScalar(t *testing.T) {
	t.Parallel()

	enq := &fakeEnqueuer{}
	s := newTestServer(t, nil, enq, &fakeReader{})

	rec := postIngest(t, s, `{"message":"single entry"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, enq.payloads, 1)
	require.JSONEq(t, `{"message":"single entry"}`, string(enq.payloads[0]))
}

func TestIngestUnwrapsLogEnvelope(t *testing.T) {
	t.Parallel()

	enq := &fakeEnqueuer{}
	s := newTestServer(t, nil, enq, &fakeReader{})

	rec := postIngest(t, s, `[{"log":{"message":"wrapped"}},{"message":"bare"}]`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, enq.payloads, 2)
	require.JSONEq(t, `{"message":"wrapped"}`, string(enq.payloads[0]))
	require.JSONEq(t, `{"message":"bare"}`, string(enq.payloads[1]))
}

func TestIngestRawTextLines(t *testing.T) {
	t.Parallel()

	enq := &fakeEnqueuer{}
	s := newTestServer(t, nil, enq, &fakeReader{})

	body := "[2025-01-01T00:00:00Z] [INFO] [t1] first\n[2025-01-01T00:00:01Z] [ERROR] [t2] second\n"
	rec := postIngest(t, s, body, map[string]string{echoHeaderContentType: "text/plain"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, enq.payloads, 2, "non-JSON bodies split into one submission per line")
	require.Equal(t, "[2025-01-01T00:00:00Z] [INFO] [t1] first", string(enq.payloads[0]))
}

func TestIngestEmptyBody(t *testing.T) {
	t.Parallel()

	enq := &fakeEnqueuer{}
	s := newTestServer(t, nil, enq, &fakeReader{})

	rec := postIngest(t, s, "", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, enq.payloads)
}

func TestIngestEnqueueFailure(t *testing.T) {
	t.Parallel()

	enq := &fakeEnqueuer{err: errors.New("queue unreachable")}
	s := newTestServer(t, nil, enq, &fakeReader{})

	rec := postIngest(t, s, `{"message":"doomed"}`, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIngestAuthPolicy(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Ingest.AuthToken = "sekret"

	t.Run("missing token rejected", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, cfg, &fakeEnqueuer{}, &fakeReader{})
		rec := postIngest(t, s, `{"message":"m"}`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, cfg, &fakeEnqueuer{}, &fakeReader{})
		rec := postIngest(t, s, `{"message":"m"}`, map[string]string{"Authorization": "Bearer nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("correct token accepted", func(t *testing.T) {
		t.Parallel()

		enq := &fakeEnqueuer{}
		s := newTestServer(t, cfg, enq, &fakeReader{})
		rec := postIngest(t, s, `{"message":"m"}`, map[string]string{"Authorization": "Bearer sekret"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, enq.payloads, 1)
	})

	t.Run("no token configured leaves endpoint open", func(t *testing.T) {
		t.Parallel()

		enq := &fakeEnqueuer{}
		s := newTestServer(t, nil, enq, &fakeReader{})
		rec := postIngest(t, s, `{"message":"m"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
