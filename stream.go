package pocketkit

import (
	"context"
	"fmt"
)

// EnsureStream creates the stream if it does not exist yet.
func (c *Conn) EnsureStream(ctx context.Context, cfg *StreamConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid stream config: %w", err)
	}

	if _, err := c.js.Stream(ctx, cfg.Name); err == nil {
		return nil
	}

	if _, err := c.js.CreateStream(ctx, cfg.toJetStreamConfig()); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
	}

	log := Logger()

	log.Info().Str("stream", cfg.Name).Strs("subjects", cfg.Subjects).Msg("stream ready")
	return nil
}
