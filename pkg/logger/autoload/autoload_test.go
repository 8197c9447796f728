package autoload

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"

	configx "github.com/tanpawarit/agentic-query-router/pkg/config"
)

func TestReloadPicksUpEnvFile(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	path := filepath.Join(t.TempDir(), "log.env")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=error\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	if err := configx.LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}

	var buf bytes.Buffer
	reload(&buf)
	log.Warn().Msg("filtered")
	log.Error().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Fatalf("warn message should be filtered at error level: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("missing error message: %s", out)
	}
}
