package logger

import "testing"

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("prod", "loud"); err == nil {
		t.Fatalf("expected error for unknown log level")
	}
}

func TestNewHonoursLevel(t *testing.T) {
	log, err := New("prod", "WARN")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if log.Core().Enabled(-1) {
		t.Fatalf("debug must be disabled at warn level")
	}
	if !log.Core().Enabled(1) {
		t.Fatalf("warn must be enabled at warn level")
	}
}
