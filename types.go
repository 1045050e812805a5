package pocketkit

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher sends a binary payload to a named subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Submitter stores a payload in a durable stream.
type Submitter interface {
	Submit(ctx context.Context, data []byte) error
	Close() error
}

// MsgHandler processes one core NATS message.
type MsgHandler func(msg *nats.Msg)

// RequestHandler computes the reply for one request. A non-nil error
// suppresses the reply; the requester times out instead.
type RequestHandler func(msg *nats.Msg) ([]byte, error)

// StreamMsgHandler processes one JetStream message. Returning an error
// naks the message for redelivery.
type StreamMsgHandler func(msg jetstream.Msg) error

// LatencyRecorder receives measured durations, e.g. to feed a histogram.
type LatencyRecorder func(time.Duration)
