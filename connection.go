package pocketkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Conn is a live session with a NATS server plus its JetStream handle.
// The caller that created it owns it and must Close it.
type Conn struct {
	server string
	nc     *nats.Conn
	js     jetstream.JetStream
}

// Connect dials the server and initializes JetStream. A failed dial or
// handshake surfaces immediately; there is no retry beyond what opts
// asks the client library for.
func Connect(ctx context.Context, server string, connOpts *ConnOptions) (*Conn, error) {
	if connOpts == nil {
		connOpts = DefaultConnOptions("pocketkit")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := Logger()
	log.Info().Str("server", server).Msg("connecting to NATS")

	opts := []nats.Option{
		nats.Name(connOpts.Name),
		nats.ReconnectWait(connOpts.ReconnectWait),
		nats.MaxReconnects(connOpts.ReconnectRetries),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log := Logger()
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log := Logger()
			log.Info().Str("server", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log := Logger()
			evt := log.Error().Err(err)
			if sub != nil {
				evt = evt.Str("subject", sub.Subject)
			}
			evt.Msg("NATS async error")
		}),
	}
	if connOpts.User != "" {
		opts = append(opts, nats.UserInfo(connOpts.User, connOpts.Pass))
	}
	// The ctx deadline bounds the dial; nats.go has no ctx-aware Connect.
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	log.Info().Str("server", server).Msg("connected, JetStream ready")
	return &Conn{server: server, nc: nc, js: js}, nil
}

// Close drains the connection and releases it. Closing an already
// closed Conn is a no-op.
func (c *Conn) Close() error {
	log := Logger()
	log.Info().Str("server", c.server).Msg("draining connection")
	if err := c.nc.Drain(); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return nil
		}
		return fmt.Errorf("drain failed: %w", err)
	}
	return nil
}

// Request sends a request and waits for the reply or ctx expiry.
func (c *Conn) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	log := Logger()
	log.Info().Str("subject", subject).Msg("sending request")
	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", subject, err)
	}
	return msg.Data, nil
}

// Server returns the address this Conn was dialed with.
func (c *Conn) Server() string {
	return c.server
}
