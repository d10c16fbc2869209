package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/logstream-io/logstream/internal/model"
	"github.com/logstream-io/logstream/internal/response"
)

func getLogs(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decodeRecords(t *testing.T, rec *httptest.ResponseRecorder) []model.LogRecord {
	t.Helper()
	var env struct {
		Data   []model.LogRecord `json:"data"`
		Status int               `json:"status"`
		Path   string            `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func sampleRecords() []model.LogRecord {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.LogRecord, 3)
	for i := range out {
		out[i] = model.LogRecord{
			Message:   "msg",
			LogLevel:  model.LevelInfo,
			SourceApp: "app1",
			Date:      base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestNewLogsSinceFilter(t *testing.T) {
	t.Parallel()

	records := sampleRecords()
	s := newTestServer(t, nil, &fakeEnqueuer{}, &fakeReader{records: records})

	// since equal to the first record's date excludes it (strictly greater).
	rec := getLogs(t, s, "/logs/new?since="+records[0].Date.Format(time.RFC3339))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeRecords(t, rec)
	require.Len(t, got, 2)
	require.True(t, got[0].Date.Equal(records[1].Date))
	require.True(t, got[1].Date.Equal(records[2].Date))
}

func TestNewLogsCursorMonotonicity(t *testing.T) {
	t.Parallel()

	records := sampleRecords()
	s := newTestServer(t, nil, &fakeEnqueuer{}, &fakeReader{records: records})

	// Poll from epoch, then poll again with the last returned date: the
	// same record must never come back.
	first := decodeRecords(t, getLogs(t, s, "/logs/new"))
	require.Len(t, first, 3)

	cursor := first[len(first)-1].Date.Format(time.RFC3339)
	second := decodeRecords(t, getLogs(t, s, "/logs/new?since="+cursor))
	require.Empty(t, second)
}

func TestNewLogsNoSinceMeansEpoch(t *testing.T) {
	t.Parallel()

	records := sampleRecords()
	s := newTestServer(t, nil, &fakeEnqueuer{}, &fakeReader{records: records})

	got := decodeRecords(t, getLogs(t, s, "/logs/new"))
	require.Len(t, got, 3)
}

func TestNewLogsInvalidSince(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, &fakeEnqueuer{}, &fakeReader{})
	rec := getLogs(t, s, "/logs/new?since=yesterday")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr response.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestNewLogsEmptyIsArrayNotNull(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, &fakeEnqueuer{}, &fakeReader{})
	rec := getLogs(t, s, "/logs/new")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestNewLogsReaderError(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, &fakeEnqueuer{}, &fakeReader{err: errors.New("db down")})
	rec := getLogs(t, s, "/logs/new")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecentLogs(t *testing.T) {
	t.Parallel()

	records := sampleRecords()
	s := newTestServer(t, nil, &fakeEnqueuer{}, &fakeReader{records: records})

	rec := getLogs(t, s, "/logs")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeRecords(t, rec), 3)
}

type fakeSourceReader struct {
	apps []model.Application
}

func (f *fakeSourceReader) List(ctx context.Context) ([]model.Application, error) {
	return f.apps, nil
}

func TestSources(t *testing.T) {
	t.Parallel()

	t.Run("lists applications", func(t *testing.T) {
		t.Parallel()

		reader := &fakeSourceReader{apps: []model.Application{{Name: "app1"}, {Name: "app2"}}}
		s := New(testConfig(), &fakeEnqueuer{}, &fakeReader{}, reader, zerolog.Nop())
		rec := getLogs(t, s, "/sources")

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"name":"app1"`)
	})

	t.Run("route absent without a reader", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, nil, &fakeEnqueuer{}, &fakeReader{})
		rec := getLogs(t, s, "/sources")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, &fakeEnqueuer{}, &fakeReader{})
	rec := getLogs(t, s, "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}
