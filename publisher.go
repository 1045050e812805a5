package pocketkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventPublisher publishes fire-and-forget events over an open Conn.
// It holds a reference only; the Conn's lifecycle belongs to its
// creator. Errors from a closed or broken connection pass through
// untranslated.
type EventPublisher struct {
	conn *Conn
}

func NewEventPublisher(conn *Conn) *EventPublisher {
	return &EventPublisher{conn: conn}
}

// Publish sends data to subject. Completion means local enqueue; core
// NATS gives at-most-once delivery and this wrapper adds nothing.
func (p *EventPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if subject == "" {
		return errors.New("subject is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log := Logger()
	log.Debug().Str("subject", subject).Int("bytes", len(data)).Msg("publishing event")
	if err := p.conn.nc.Publish(subject, data); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("event sent")
	return nil
}

type pendingSubmit struct {
	sendTime time.Time
	subject  string
	future   jetstream.PubAckFuture
}

// StreamPublisher stores payloads in a JetStream stream. Submissions
// are published asynchronously and acks are collected in batches; an
// optional LatencyRecorder sees the submit-to-ack latency of each
// message.
type StreamPublisher struct {
	conn          *Conn
	subject       string
	batchSize     int
	pendingMu     sync.Mutex
	pending       []*pendingSubmit
	recordLatency LatencyRecorder
}

// NewStreamPublisher ensures the stream exists and returns a publisher
// bound to subject. batchSize controls how many submissions accumulate
// before a flush waits for their acks.
func NewStreamPublisher(ctx context.Context, conn *Conn, streamCfg *StreamConfig, subject string, batchSize int, recordLatency LatencyRecorder) (*StreamPublisher, error) {
	if err := conn.EnsureStream(ctx, streamCfg); err != nil {
		return nil, err
	}
	if batchSize < 1 {
		batchSize = 1
	}

	return &StreamPublisher{
		conn:          conn,
		subject:       subject,
		batchSize:     batchSize,
		pending:       make([]*pendingSubmit, 0, batchSize),
		recordLatency: recordLatency,
	}, nil
}

// Submit stores data in the stream. The message carries its send time
// in a header so consumers without stream metadata can still compute
// end-to-end latency.
func (p *StreamPublisher) Submit(ctx context.Context, data []byte) error {
	sendTime := time.Now()
	msg := &nats.Msg{
		Subject: p.subject,
		Header:  nats.Header{"X-Sent-Time": []string{sendTime.Format(time.RFC3339Nano)}},
		Data:    data,
	}

	future, err := p.conn.js.PublishMsgAsync(msg)
	if err != nil {
		return fmt.Errorf("async publish error: %w", err)
	}

	p.pendingMu.Lock()
	p.pending = append(p.pending, &pendingSubmit{sendTime, p.subject, future})
	flush := len(p.pending) >= p.batchSize
	p.pendingMu.Unlock()

	if flush {
		return p.flush(ctx)
	}
	return nil
}

func (p *StreamPublisher) flush(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	select {
	case <-p.conn.js.PublishAsyncComplete():
		p.pendingMu.Lock()

		// A Submit racing this flush can append a future that is not
		// resolved yet; it stays pending for the next flush.
		remaining := p.pending[:0]
		for _, sub := range p.pending {
			select {
			case <-sub.future.Ok():
				if p.recordLatency != nil {
					p.recordLatency(time.Since(sub.sendTime))
				}
			case err := <-sub.future.Err():
				log := Logger()
				log.Error().Err(err).Str("subject", sub.subject).Msg("async publish failed")
			default:
				remaining = append(remaining, sub)
			}
		}

		p.pending = remaining
		p.pendingMu.Unlock()

	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Close flushes outstanding submissions. It does not close the Conn,
// which remains owned by the caller.
func (p *StreamPublisher) Close() error {
	p.pendingMu.Lock()
	outstanding := len(p.pending)
	p.pendingMu.Unlock()

	if outstanding == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return p.flush(ctx)
}
