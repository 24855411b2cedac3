package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/agrinos/plantclassifier/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	t.Run("json outside dev", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup(&buf, false, "warn")
		logger.Info().Msg("dropped")
		logger.Warn().Str("component", "test").Msg("kept")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "kept", line["message"])
		require.Equal(t, "test", line["component"])
		require.Equal(t, "warn", line["level"])
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup(&buf, false, "loud")
		logger.Debug().Msg("dropped")
		require.Zero(t, buf.Len())
		logger.Info().Msg("kept")
		require.Contains(t, buf.String(), "kept")
	})

	t.Run("console in dev", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup(&buf, true, "debug")
		logger.Debug().Msg("hello")
		require.Contains(t, buf.String(), "hello")
		require.False(t, json.Valid(buf.Bytes()))
	})
}
