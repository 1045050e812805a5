package pocketkit_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dfine/pocketkit"
)

func TestLogger_LazyInit(t *testing.T) {
	l := pocketkit.Logger()
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())
}

func TestSetLogger_RoutesEmissions(t *testing.T) {
	prev := pocketkit.Logger()
	t.Cleanup(func() { pocketkit.SetLogger(prev) })

	buf := &bytes.Buffer{}
	pocketkit.SetLogger(zerolog.New(buf))

	log := pocketkit.Logger()
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestSetLogLevel_SuppressesBelowLevel(t *testing.T) {
	prev := pocketkit.Logger()
	t.Cleanup(func() { pocketkit.SetLogger(prev) })

	buf := &bytes.Buffer{}
	pocketkit.SetLogger(zerolog.New(buf))
	pocketkit.SetLogLevel(zerolog.WarnLevel)

	log := pocketkit.Logger()
	log.Info().Msg("quiet")
	log.Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}
