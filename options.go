package pocketkit

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// ConnOptions configures how Connect dials the NATS server.
type ConnOptions struct {
	Name             string
	ReconnectWait    time.Duration
	ReconnectRetries int
	User             string
	Pass             string
}

// DefaultConnOptions returns sensible defaults for a named client.
func DefaultConnOptions(name string) *ConnOptions {
	return &ConnOptions{
		Name:             name,
		ReconnectWait:    5 * time.Second,
		ReconnectRetries: 10,
	}
}

// StreamConfig is a user-friendly config for creating streams.
type StreamConfig struct {
	Name      string
	Subjects  []string
	Replicas  int
	MaxAge    time.Duration
	Storage   jetstream.StorageType
	Retention jetstream.RetentionPolicy
	Discard   jetstream.DiscardPolicy
}

func (s *StreamConfig) Validate() error {
	if s.Name == "" {
		return errors.New("stream name is required")
	}
	if len(s.Subjects) == 0 {
		return errors.New("at least one subject is required")
	}
	if s.Replicas < 1 {
		return errors.New("replicas must be at least 1")
	}
	return nil
}

func (s *StreamConfig) toJetStreamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:      s.Name,
		Subjects:  s.Subjects,
		Replicas:  s.Replicas,
		MaxAge:    s.MaxAge,
		Storage:   s.Storage,
		Retention: s.Retention,
		Discard:   s.Discard,
	}
}

// DefaultStreamConfig returns a StreamConfig with sensible defaults.
func DefaultStreamConfig(name string, subjects []string) *StreamConfig {
	return &StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Replicas:  1,
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		Discard:   jetstream.DiscardOld,
	}
}

// WorkerConfig tunes a durable pull worker.
type WorkerConfig struct {
	Durable       string
	Batch         int
	AckWait       time.Duration
	MaxDeliver    int
	MaxAckPending int
	FetchTimeout  time.Duration
}

func (c *WorkerConfig) Validate() error {
	if c.Durable == "" {
		return errors.New("durable name is required")
	}
	if c.Batch < 1 {
		return errors.New("batch must be at least 1")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	return nil
}

func (c *WorkerConfig) toConsumerConfig(subject string) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:        c.Durable,
		AckPolicy:      jetstream.AckExplicitPolicy,
		AckWait:        c.AckWait,
		MaxDeliver:     c.MaxDeliver,
		MaxAckPending:  c.MaxAckPending,
		FilterSubjects: []string{subject},
	}
}

// DefaultWorkerConfig returns a WorkerConfig with sensible defaults.
func DefaultWorkerConfig(durable string) WorkerConfig {
	return WorkerConfig{
		Durable:       durable,
		Batch:         1,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		MaxAckPending: 10000,
		FetchTimeout:  time.Second,
	}
}
