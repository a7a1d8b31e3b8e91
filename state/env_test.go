package state

import (
	"archive/zip"
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"csscov/config"
)

func TestContextWithEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
	if env.Stdout != os.Stdout {
		t.Error("Stdout should default to os.Stdout")
	}
	if env.CodePage != nil {
		t.Error("CodePage should be detected by default")
	}
}

func TestEnvFromContext_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := &LocalEnv{start: time.Now()}

	for _, delay := range []time.Duration{5 * time.Millisecond, 10 * time.Millisecond} {
		time.Sleep(delay)
		if uptime := env.Uptime(); uptime < delay {
			t.Errorf("After %v delay, uptime %v is too small", delay, uptime)
		}
	}
}

func TestLocalEnv_RedirectStdLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	env := &LocalEnv{Log: zap.New(core)}

	env.RedirectStdLog()
	if env.restoreStdLog == nil {
		t.Fatal("Expected restoreStdLog to be set")
	}
	log.Print("from standard logger")
	env.RestoreStdLog()

	if logs.FilterMessage("from standard logger").Len() != 1 {
		t.Errorf("standard log message was not redirected: %v", logs.All())
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	log.Print("after restore")
	if logs.FilterMessage("after restore").Len() != 0 {
		t.Error("standard logger still redirected after restore")
	}
}

func TestLocalEnv_NilLogger(t *testing.T) {
	env := &LocalEnv{}

	env.RedirectStdLog()
	if env.restoreStdLog != nil {
		t.Error("Expected restoreStdLog to remain nil")
	}
	env.RestoreStdLog()
}

func TestLocalEnv_RedirectAndRestore(t *testing.T) {
	env := &LocalEnv{
		Cfg: &config.Config{Version: 1},
		Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
	}

	for i := range 3 {
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Errorf("Iteration %d: restoreStdLog not set", i)
		}
		env.RestoreStdLog()
		if env.restoreStdLog != nil {
			t.Errorf("Iteration %d: restoreStdLog not cleared", i)
		}
	}
}

func TestLocalEnv_Setup(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if err := env.Setup("", true, false); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer env.Close()

	if env.Cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("console level = %s, want debug", env.Cfg.Logging.ConsoleLogger.Level)
	}
	if env.Rpt != nil {
		t.Error("debug report created without request")
	}
	if env.Log == nil || env.restoreStdLog == nil {
		t.Error("logging not prepared")
	}
}

func TestLocalEnv_SetupBadConfig(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if err := env.Setup(filepath.Join(t.TempDir(), "missing.yaml"), false, false); err == nil {
		t.Error("Setup() expected error for missing configuration")
	}
}

func TestLocalEnv_DebugReport(t *testing.T) {
	dir := filepath.ToSlash(t.TempDir())
	cfgFile := filepath.Join(dir, "csscov.yaml")
	data := []byte(`version: 1
logging:
  console:
    level: none
  file:
    level: normal
    destination: ` + dir + `/logs/csscov.log
reporting:
  destination: ` + dir + `/report.zip
`)
	if err := os.WriteFile(cfgFile, data, 0644); err != nil {
		t.Fatal(err)
	}

	env := EnvFromContext(ContextWithEnv(context.Background()))
	if err := env.Setup(cfgFile, false, true); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if env.Rpt == nil {
		t.Fatal("debug report not created")
	}
	env.Log.Info("hello")
	panicLog := env.Cfg.Logging.PanicLogName()

	if err := env.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if env.Rpt != nil {
		t.Error("report still set after Close()")
	}
	if _, err := os.Stat(panicLog); !os.IsNotExist(err) {
		t.Errorf("empty panic log %s was not removed", panicLog)
	}

	r, err := zip.OpenReader(filepath.Join(dir, "report.zip"))
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer r.Close()
	var found bool
	for _, f := range r.File {
		if f.Name == "config/csscov.yaml" {
			found = true
		}
	}
	if !found {
		t.Error("configuration is missing from debug report")
	}
}
