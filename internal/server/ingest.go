package server

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/logstream-io/logstream/internal/response"
)

// handleIngest accepts a batch submission and fans it out into independent
// queue messages on the configured channel (POST /ingest). The 200
// response is acceptance-of-receipt only; parse and persist outcomes are
// asynchronous. An enqueue failure rejects the whole batch with 500.
func (s *Server) handleIngest(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BadRequest(c, "could not read request body", err.Error())
	}
	subs := splitSubmissions(body)
	if len(subs) == 0 {
		return response.BadRequest(c, "empty submission", "request body contained no log entries")
	}

	ctx := c.Request().Context()
	channel := s.Config.Queue.Channel
	for _, sub := range subs {
		if err := s.enqueuer.Enqueue(ctx, channel, sub); err != nil {
			s.log.Error().Err(err).Str("channel", channel).Msg("enqueue failed")
			return response.InternalError(c, "could not queue logs", err.Error())
		}
	}
	return response.OK(c, map[string]any{"queued": len(subs)}, "logs queued")
}

// splitSubmissions normalizes a request body into independent raw
// submissions. A JSON array yields one submission per element, a JSON
// scalar or object is wrapped as a single-element batch, and a non-JSON
// body is treated as raw text lines (one submission per non-empty line).
// Each JSON element is unwrapped one level: {"log": {...}} becomes {...}.
func splitSubmissions(body []byte) [][]byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err == nil {
		subs := make([][]byte, 0, len(elements))
		for _, el := range elements {
			subs = append(subs, unwrapLog(el))
		}
		return subs
	}

	if json.Valid(trimmed) {
		return [][]byte{unwrapLog(trimmed)}
	}

	var subs [][]byte
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			subs = append(subs, []byte(line))
		}
	}
	return subs
}

// unwrapLog unwraps a one-level {"log": ...} nesting, mirroring how
// shippers wrap entries in a log envelope. Anything without a log key
// passes through unchanged.
func unwrapLog(raw json.RawMessage) []byte {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	if inner, ok := envelope["log"]; ok {
		return inner
	}
	return raw
}
