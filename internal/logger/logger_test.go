package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aleister1102/sitewatch/internal/config"
)

func TestNew_DefaultLogger(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	log, err := New(cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	_ = log // ensure variable is used
}

func TestNew_FileLogger(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "sitewatch.log")
	cfg.LogFormat = "json"

	log, err := New(cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	log.Info().Msg("file logger smoke test")

	if _, err := os.Stat(cfg.LogFile); err != nil {
		t.Errorf("expected log file to be created: %v", err)
	}
}

func TestConvertConfig_Levels(t *testing.T) {
	cc := NewConfigConverter()

	cfg := config.NewDefaultLogConfig()
	cfg.LogLevel = "debug"
	if got := cc.ConvertConfig(cfg).Level; got != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %v", got)
	}

	cfg.LogLevel = "not-a-level"
	if got := cc.ConvertConfig(cfg).Level; got != zerolog.InfoLevel {
		t.Errorf("expected fallback to info level, got %v", got)
	}

	cfg.LogLevel = ""
	if got := cc.ConvertConfig(cfg).Level; got != zerolog.InfoLevel {
		t.Errorf("expected info level for empty config, got %v", got)
	}
}
