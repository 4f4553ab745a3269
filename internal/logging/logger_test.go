package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"unknown": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitWith_TagsApp(t *testing.T) {
	var buf bytes.Buffer
	logger := initWith(&buf, "storefront-api", "info")

	logger.Debug().Msg("hidden")
	logger.Info().Str("order_id", "o-1").Msg("order_created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "storefront-api", line["app"])
	assert.Equal(t, "order_created", line["message"])
	assert.Equal(t, "o-1", line["order_id"])
}
