package zapLogger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{" WARN ", zap.WarnLevel},
		{"warning", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"info", zap.InfoLevel},
		{"", zap.InfoLevel},
		{"verbose", zap.InfoLevel},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseLevel(c.in), "input %q", c.in)
	}
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cruces.log")
	w := Init(Options{Level: "info", File: path, MaxSizeMB: 1})
	require.NotNil(t, w)

	Log.Infow("grant created", "grupo_id", 7)
	Log.Debug("hidden")
	_ = Log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "grant created")
	assert.Contains(t, string(raw), "grupo_id")
	assert.NotContains(t, string(raw), "hidden")
}
