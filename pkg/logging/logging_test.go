package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		config        Config
		expectedLevel zapcore.Level
	}{
		{"default level is info", Config{}, zapcore.InfoLevel},
		{"debug level", Config{Level: "debug"}, zapcore.DebugLevel},
		{"warn level", Config{Level: "warn"}, zapcore.WarnLevel},
		{"warning alias", Config{Level: "warning"}, zapcore.WarnLevel},
		{"error level", Config{Level: "error"}, zapcore.ErrorLevel},
		{"unknown level defaults to info", Config{Level: "loud"}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatal("logger is nil")
			}
			if !logger.Core().Enabled(tt.expectedLevel) {
				t.Errorf("expected level %v to be enabled", tt.expectedLevel)
			}
			if tt.expectedLevel > zapcore.DebugLevel && logger.Core().Enabled(tt.expectedLevel-1) {
				t.Errorf("expected level %v to be disabled", tt.expectedLevel-1)
			}
		})
	}
}

func TestComponent(t *testing.T) {
	logger, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child := Component(logger, "refresher")
	if child == nil {
		t.Fatal("component logger is nil")
	}
	if child == logger {
		t.Fatal("expected a child logger, got the parent")
	}
}
