package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, DEBUG, ParseLevel("debug"))
	require.Equal(t, WARN, ParseLevel("WARNING"))
	require.Equal(t, ERROR, ParseLevel(" error "))
	require.Equal(t, INFO, ParseLevel(""))
	require.Equal(t, INFO, ParseLevel("bogus"))
}

func TestOrNop(t *testing.T) {
	require.NotNil(t, OrNop(nil))
	logger := NewComponentLogger("test")
	require.Equal(t, logger, OrNop(logger))
}

func TestNopDiscards(t *testing.T) {
	// Must not panic with any argument shape.
	logger := Nop()
	logger.Debug("x %d", 1)
	logger.Info("y")
	logger.Warn("z %s %s", "a", "b")
	logger.Error("w")
}
