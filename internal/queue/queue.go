// Package queue implements a durable at-least-once message channel on
// PostgreSQL. Messages are claimed with FOR UPDATE SKIP LOCKED so each is
// held by at most one consumer at a time; a message whose lease expires
// before acknowledgment becomes claimable again.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/logstream-io/logstream/internal/model"
)

// Options tunes delivery semantics.
type Options struct {
	// Lease is the visibility window granted on dequeue.
	Lease time.Duration
	// MaxAttempts is the delivery count after which a failed message is
	// dead-lettered instead of redelivered.
	MaxAttempts int
	// RetryBackoff is the base delay before a failed message becomes
	// visible again; it doubles per attempt up to MaxBackoff.
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
}

func (o *Options) applyDefaults() {
	if o.Lease <= 0 {
		o.Lease = 30 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 5 * time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Minute
	}
}

// Queue is a Postgres-backed durable queue.
type Queue struct {
	pool *pgxpool.Pool
	opts Options
	log  zerolog.Logger
}

// New returns a Queue using the given pool.
func New(pool *pgxpool.Pool, opts Options, log zerolog.Logger) *Queue {
	opts.applyDefaults()
	return &Queue{pool: pool, opts: opts, log: log}
}

// Enqueue appends one message to the channel in pending state.
func (q *Queue) Enqueue(ctx context.Context, channel string, payload []byte) error {
	id := uuid.New()
	_, err := q.pool.Exec(ctx, `
		INSERT INTO queue_messages (id, channel, payload, state)
		VALUES ($1, $2, $3, 'pending')`,
		id, channel, payload)
	if err != nil {
		return fmt.Errorf("enqueue on %s: %w", channel, err)
	}
	q.log.Debug().Stringer("message_id", id).Str("channel", channel).Msg("message enqueued")
	return nil
}

// Dequeue claims up to limit messages from the channel, marking them
// in-flight with a fresh lease and incrementing their attempt count.
// Claimable messages are pending ones whose visible_at has passed and
// in-flight ones whose lease has expired. Returns an empty slice when the
// channel is drained.
func (q *Queue) Dequeue(ctx context.Context, channel string, limit int) ([]model.Message, error) {
	rows, err := q.pool.Query(ctx, `
		WITH claimed AS (
			SELECT id
			FROM queue_messages
			WHERE channel = $1
			  AND (
				(state = 'pending' AND visible_at <= now())
				OR (state = 'in_flight' AND leased_until < now())
			  )
			ORDER BY enqueued_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE queue_messages m
		SET state = 'in_flight',
		    attempts = m.attempts + 1,
		    leased_until = now() + make_interval(secs => $3)
		FROM claimed
		WHERE m.id = claimed.id
		RETURNING m.id, m.channel, m.payload, m.state, m.attempts, m.enqueued_at, m.visible_at, m.leased_until`,
		channel, limit, q.opts.Lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("dequeue from %s: %w", channel, err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(
			&m.ID,
			&m.Channel,
			&m.Payload,
			&m.State,
			&m.Attempts,
			&m.EnqueuedAt,
			&m.VisibleAt,
			&m.LeasedUntil,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Ack marks a message completed. Completed messages are kept for
// inspection rather than deleted; retention is a separate concern.
func (q *Queue) Ack(ctx context.Context, id uuid.UUID) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE queue_messages
		SET state = 'completed', leased_until = 'epoch'
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ack %s: %w", id, err)
	}
	return nil
}

// Fail reports a unit of work as failed. The message returns to pending
// with exponential backoff, or moves to failed (dead-letter) once its
// attempt count reaches MaxAttempts.
func (q *Queue) Fail(ctx context.Context, id uuid.UUID) error {
	tag, err := q.pool.Exec(ctx, `
		UPDATE queue_messages
		SET state = CASE WHEN attempts >= $2 THEN 'failed' ELSE 'pending' END,
		    visible_at = now() + make_interval(secs => least($3 * power(2, greatest(attempts - 1, 0)), $4)),
		    leased_until = 'epoch'
		WHERE id = $1`,
		id, q.opts.MaxAttempts, q.opts.RetryBackoff.Seconds(), q.opts.MaxBackoff.Seconds())
	if err != nil {
		return fmt.Errorf("fail %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		q.log.Warn().Stringer("message_id", id).Msg("fail on unknown message")
	}
	return nil
}
