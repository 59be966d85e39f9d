package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

func TestInitLoggers(t *testing.T) {
	var out bytes.Buffer
	prev := logOutput
	logOutput = &out
	t.Cleanup(func() { logOutput = prev })

	if err := InitLoggers(ServerConfig{LogLevel: "loud"}); err == nil {
		t.Fatalf("InitLoggers() with invalid level: expected error")
	}

	// the factory is installed once, further calls only change the level
	for _, level := range []string{"debug", "error"} {
		if err := InitLoggers(ServerConfig{LogLevel: level}); err != nil {
			t.Fatalf("InitLoggers(%q) error = %v", level, err)
		}
	}

	l := logger.GetLogger("server")
	l.Infof("below the level")
	l.Errorf("above the level")

	got := out.String()
	if strings.Contains(got, "below the level") {
		t.Errorf("info message logged at level error:\n%s", got)
	}
	if !strings.Contains(got, "ERROR | server") || !strings.Contains(got, "above the level") {
		t.Errorf("error message missing or not formatted:\n%s", got)
	}
}

func TestCreateLoggerLevels(t *testing.T) {
	var out bytes.Buffer
	prev := logOutput
	logOutput = &out
	t.Cleanup(func() { logOutput = prev })

	l := CreateLogger("test")
	l.Debugf("hidden")
	l.Infof("info %d", 1)
	l.SetLevel(logger.DEBUG)
	l.Debugf("shown")

	got := out.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug message logged at level info:\n%s", got)
	}
	for _, want := range []string{"INFO  | test", "info 1", "DEBUG | test", "shown"} {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
}
