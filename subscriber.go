package pocketkit

import (
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// EventSubscriber receives events published over core NATS.
type EventSubscriber struct {
	conn *Conn
}

func NewEventSubscriber(conn *Conn) *EventSubscriber {
	return &EventSubscriber{conn: conn}
}

// Subscribe delivers every message on subject to handler. The
// subscription stays live until Unsubscribe or the Conn is closed.
func (s *EventSubscriber) Subscribe(subject string, handler MsgHandler) (*nats.Subscription, error) {
	if subject == "" {
		return nil, errors.New("subject is required")
	}

	sub, err := s.conn.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s failed: %w", subject, err)
	}
	log := Logger()
	log.Info().Str("subject", subject).Msg("subscribed")
	return sub, nil
}

// Responder serves the reply side of request/reply on a fixed subject.
// Handler errors are logged, never propagated; the requester sees a
// timeout rather than a crash on the serving side.
type Responder struct {
	conn    *Conn
	subject string
}

func NewResponder(conn *Conn, subject string) *Responder {
	return &Responder{conn: conn, subject: subject}
}

// Serve answers every request on the subject with the handler's reply.
// It returns once the subscription is established.
func (r *Responder) Serve(handler RequestHandler) (*nats.Subscription, error) {
	sub, err := r.conn.nc.Subscribe(r.subject, func(msg *nats.Msg) {
		reply, err := handler(msg)
		if err != nil {
			log := Logger()
			log.Error().Err(err).Str("subject", r.subject).Msg("responder handler failed")
			return
		}
		if err := msg.Respond(reply); err != nil {
			log := Logger()
			log.Error().Err(err).Str("subject", r.subject).Msg("respond failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("responder subscribe to %s failed: %w", r.subject, err)
	}
	log := Logger()
	log.Info().Str("subject", r.subject).Msg("responder listening")
	return sub, nil
}

// QueueWorker is a load-balanced subscriber: messages on the subject
// are distributed across all workers sharing the same queue group.
type QueueWorker struct {
	conn    *Conn
	subject string
	queue   string
}

func NewQueueWorker(conn *Conn, subject, queue string) *QueueWorker {
	return &QueueWorker{conn: conn, subject: subject, queue: queue}
}

// Run starts consuming. This returns once the subscription is
// established; delivery happens on the client library's dispatch
// goroutine.
func (w *QueueWorker) Run(handler MsgHandler) (*nats.Subscription, error) {
	sub, err := w.conn.nc.QueueSubscribe(w.subject, w.queue, func(msg *nats.Msg) {
		handler(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("queue subscribe to %s failed: %w", w.subject, err)
	}
	log := Logger()
	log.Info().Str("subject", w.subject).Str("queue", w.queue).Msg("queue worker listening")
	return sub, nil
}
