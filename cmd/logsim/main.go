// logsim emits bracket-format log lines for a named application and posts
// them to the ingestion endpoint at a fixed interval.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

var levels = []string{"DEBUG", "INFO", "ERROR", "TRACE"}

var appMessages = map[string][]string{
	"app1": {
		"User authentication successful",
		"Database connection established",
		"Processing payment transaction",
		"Cache hit for user preferences",
		"API request received",
	},
	"app2": {
		"File upload completed",
		"Email notification sent",
		"Background job started",
		"Configuration updated",
		"Health check passed",
	},
	"app3": {
		"Order processing initiated",
		"Inventory updated",
		"Shipping label generated",
		"Customer notification sent",
		"Analytics event tracked",
	},
	"default-app": {
		"Generic application log message",
		"System operation completed",
		"Process executed successfully",
	},
}

func traceID() string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	var b strings.Builder
	for i := 0; i < 19; i++ {
		b.WriteByte(chars[rand.Intn(len(chars))])
	}
	return b.String()
}

func generateLine(app string) string {
	msgs, ok := appMessages[app]
	if !ok {
		msgs = appMessages["default-app"]
	}
	return fmt.Sprintf("[%s] [%s] [%s] %s",
		time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		levels[rand.Intn(len(levels))],
		traceID(),
		msgs[rand.Intn(len(msgs))])
}

func main() {
	var (
		app      = flag.String("app", "default-app", "application name to simulate")
		target   = flag.String("target", "http://localhost:3001/ingest", "ingestion endpoint URL")
		interval = flag.Duration("interval", 5*time.Second, "emission interval")
		asJSON   = flag.Bool("json", false, "submit structured JSON instead of raw lines")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("service", "logsim").Str("app", *app).Logger()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	client := &http.Client{Timeout: 10 * time.Second}
	logger.Info().Str("target", *target).Dur("interval", *interval).Msg("simulator started")

	for {
		select {
		case <-sig:
			logger.Info().Msg("simulator stopped")
			return
		case <-ticker.C:
			var body []byte
			contentType := "text/plain"
			line := generateLine(*app)
			if *asJSON {
				msgs, ok := appMessages[*app]
				if !ok {
					msgs = appMessages["default-app"]
				}
				body = []byte(fmt.Sprintf(
					`{"message":%q,"logLevel":%q,"traceId":%q,"sourceApp":%q,"date":%q}`,
					msgs[rand.Intn(len(msgs))],
					levels[rand.Intn(len(levels))],
					traceID(),
					*app,
					time.Now().UTC().Format(time.RFC3339Nano)))
				contentType = "application/json"
				line = string(body)
			} else {
				body = []byte(line)
			}
			resp, err := client.Post(*target, contentType, bytes.NewReader(body))
			if err != nil {
				logger.Error().Err(err).Msg("submission failed")
				continue
			}
			resp.Body.Close()
			logger.Info().Int("status", resp.StatusCode).Str("line", line).Msg("log submitted")
		}
	}
}
