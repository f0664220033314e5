package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"baccarat-ledger/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantLevel zapcore.Level
	}{
		{"json debug", config.LogConfig{Level: "debug", Encoding: "json"}, zapcore.DebugLevel},
		{"console warn", config.LogConfig{Level: "WARN", Encoding: "console"}, zapcore.WarnLevel},
		{"unknown level", config.LogConfig{Level: "loud", Encoding: "xml"}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !l.Core().Enabled(tt.wantLevel) {
				t.Errorf("level %v not enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && l.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("level %v should be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
