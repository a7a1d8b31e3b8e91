package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingConfig_Prepare(t *testing.T) {
	dir := t.TempDir()
	conf := LoggingConfig{
		ConsoleLogger: ConsoleLoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal", Destination: filepath.Join(dir, "test.log"), Mode: "overwrite"},
	}

	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hidden")
	log.Info("visible")
	_ = log.Sync()

	data, err := os.ReadFile(conf.FileLogger.Destination)
	if err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
	if !strings.Contains(string(data), "visible") || strings.Contains(string(data), "hidden") {
		t.Errorf("unexpected log content:\n%s", data)
	}
	if got := conf.PanicLogName(); got != filepath.Join(dir, "csscov-panic.log") {
		t.Errorf("PanicLogName() = %q", got)
	}
}

func TestLoggingConfig_PrepareWithReport(t *testing.T) {
	dir := t.TempDir()
	rpt, err := (&ReporterConfig{Destination: filepath.Join(dir, "r.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	conf := LoggingConfig{
		ConsoleLogger: ConsoleLoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none", Destination: filepath.Join(dir, "test.log")},
	}

	log, err := conf.Prepare(rpt)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("forced debug")
	_ = log.Sync()

	data, err := os.ReadFile(conf.FileLogger.Destination)
	if err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
	if !strings.Contains(string(data), "forced debug") {
		t.Errorf("debug message missing with report requested:\n%s", data)
	}
	if _, ok := rpt.entries["final.log"]; !ok {
		t.Error("log was not stored in report")
	}
	if err := rpt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestConsoleLoggerConfig_Stream(t *testing.T) {
	if (&ConsoleLoggerConfig{Destination: "stdout"}).stream() != os.Stdout {
		t.Error("stdout destination")
	}
	if (&ConsoleLoggerConfig{}).stream() != os.Stderr {
		t.Error("default destination must be stderr")
	}
}

func TestEnableColorOutput(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if EnableColorOutput(f) {
		t.Error("EnableColorOutput() = true for regular file")
	}

	t.Setenv("NO_COLOR", "1")
	if EnableColorOutput(os.Stderr) {
		t.Error("EnableColorOutput() = true with NO_COLOR set")
	}
}
