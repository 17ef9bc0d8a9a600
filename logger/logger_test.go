package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestEntryChaining(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("market").
		WithFields(Fields{"coin": "bitcoin"}).
		WithError(errors.New("upstream down"))

	data := entry.Entry.Data
	if data["component"] != "market" {
		t.Errorf("component = %v", data["component"])
	}
	if data["coin"] != "bitcoin" {
		t.Errorf("coin = %v", data["coin"])
	}
	err, ok := data["error"].(error)
	if !ok || err.Error() != "upstream down" {
		t.Errorf("error field = %v", data["error"])
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestConfigureInvalidFormat(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestConfigureJSONFileOutput(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "app.log")
	log := Logger()
	if err := log.Configure("info", "json", path, 0); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	log.WithComponent("web").Info("listening")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, raw)
	}
	if record["message"] != "listening" {
		t.Errorf("message = %v", record["message"])
	}
	if record["component"] != "web" {
		t.Errorf("component = %v", record["component"])
	}
	if record["timestamp"] == nil || record["level"] != "info" {
		t.Errorf("missing renamed fields: %v", record)
	}
}

func TestConfigureTextRotatedOutput(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "app.log")
	log := Logger()
	// maxAge > 0 routes output through the rotating writer.
	if err := log.Configure("info", "text", path, 7); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	log.Info("rotated line")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "rotated line") {
		t.Errorf("log line missing from file: %s", raw)
	}
}

func TestConfigureEnvOverridesLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	log := Logger()
	if err := log.Configure("warn", "json", "stdout", 0); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v, want debug", log.GetLevel())
	}
}
