package pocketkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// PullStreamWorker consumes a stream through a durable pull consumer.
// Handler errors nak the message so the server redelivers it.
type PullStreamWorker struct {
	conn          *Conn
	cons          jetstream.Consumer
	stream        string
	subject       string
	cfg           WorkerConfig
	recordLatency LatencyRecorder
}

// NewPullStreamWorker ensures the stream exists and creates or updates
// the durable consumer.
func NewPullStreamWorker(ctx context.Context, conn *Conn, streamCfg *StreamConfig, subject string, cfg WorkerConfig, recordLatency LatencyRecorder) (*PullStreamWorker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := conn.EnsureStream(ctx, streamCfg); err != nil {
		return nil, err
	}

	consCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cons, err := conn.js.CreateOrUpdateConsumer(consCtx, streamCfg.Name, cfg.toConsumerConfig(subject))
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	log := Logger()

	log.Info().
		Str("stream", streamCfg.Name).
		Str("durable", cfg.Durable).
		Str("subject", subject).
		Msg("pull worker ready")

	return &PullStreamWorker{
		conn:          conn,
		cons:          cons,
		stream:        streamCfg.Name,
		subject:       subject,
		cfg:           cfg,
		recordLatency: recordLatency,
	}, nil
}

// Poll fetches one batch and runs handler on each message. A nil
// handler error acks; a non-nil one naks for redelivery.
func (w *PullStreamWorker) Poll(ctx context.Context, handler StreamMsgHandler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msgs, err := w.cons.Fetch(w.cfg.Batch, jetstream.FetchMaxWait(w.cfg.FetchTimeout))
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	for msg := range msgs.Messages() {
		w.observeLatency(msg)

		if err := handler(msg); err != nil {
			log := Logger()
			log.Error().Err(err).Str("subject", msg.Subject()).Msg("handler failed, nak")
			_ = msg.Nak()
			continue
		}
		_ = msg.Ack()
	}
	return msgs.Error()
}

// Run polls until ctx is cancelled. Fetch timeouts are idle cycles,
// not failures; a failing poll waits one fetch interval before the
// next attempt so a broken consumer does not spin.
func (w *PullStreamWorker) Run(ctx context.Context, handler StreamMsgHandler) error {
	log := Logger()
	log.Info().Str("durable", w.cfg.Durable).Str("subject", w.subject).Msg("pull worker running")
	for {
		if err := w.Poll(ctx, handler); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			log := Logger()
			log.Warn().Err(err).Msg("poll failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.cfg.FetchTimeout):
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (w *PullStreamWorker) observeLatency(msg jetstream.Msg) {
	observeLatency(msg, w.recordLatency)
}

func observeLatency(msg jetstream.Msg, record LatencyRecorder) {
	if record == nil {
		return
	}
	if meta, err := msg.Metadata(); err == nil && meta != nil {
		record(time.Since(meta.Timestamp))
	} else if sent := msg.Headers().Get("X-Sent-Time"); sent != "" {
		if t, err := time.Parse(time.RFC3339Nano, sent); err == nil {
			record(time.Since(t))
		}
	}
}

// SubscribeStreamWorker consumes a stream through a durable push-style
// subscription: messages arrive on the client library's dispatch
// goroutine instead of being polled.
type SubscribeStreamWorker struct {
	conn          *Conn
	cons          jetstream.Consumer
	stream        string
	subject       string
	durable       string
	recordLatency LatencyRecorder
}

// NewSubscribeStreamWorker ensures the stream exists and creates or
// updates the durable consumer.
func NewSubscribeStreamWorker(ctx context.Context, conn *Conn, streamCfg *StreamConfig, subject, durable string, recordLatency LatencyRecorder) (*SubscribeStreamWorker, error) {
	if durable == "" {
		return nil, errors.New("durable name is required")
	}
	if err := conn.EnsureStream(ctx, streamCfg); err != nil {
		return nil, err
	}

	consCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cons, err := conn.js.CreateOrUpdateConsumer(consCtx, streamCfg.Name, jetstream.ConsumerConfig{
		Durable:        durable,
		AckPolicy:      jetstream.AckExplicitPolicy,
		FilterSubjects: []string{subject},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	return &SubscribeStreamWorker{
		conn:          conn,
		cons:          cons,
		stream:        streamCfg.Name,
		subject:       subject,
		durable:       durable,
		recordLatency: recordLatency,
	}, nil
}

// Run starts delivery to handler and returns once the subscription is
// live. A nil handler error acks; a non-nil one naks for redelivery.
// Stop the returned ConsumeContext to end delivery.
func (w *SubscribeStreamWorker) Run(handler StreamMsgHandler) (jetstream.ConsumeContext, error) {
	cc, err := w.cons.Consume(func(msg jetstream.Msg) {
		observeLatency(msg, w.recordLatency)

		if err := handler(msg); err != nil {
			log := Logger()
			log.Error().Err(err).Str("subject", msg.Subject()).Msg("handler failed, nak")
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return nil, fmt.Errorf("consume failed: %w", err)
	}
	log := Logger()
	log.Info().Str("durable", w.durable).Str("subject", w.subject).Msg("subscribe worker listening")
	return cc, nil
}
