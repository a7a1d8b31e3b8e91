// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"csscov/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	CodePage encoding.Encoding // forced document character set, nil to detect
	Stdout   io.Writer         // where reports without destination go

	start         time.Time
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		Stdout: os.Stdout,
		start:  time.Now(),
	}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

// Setup loads configuration and prepares logging. With report set debug report
// is started and effective configuration is stored in it under the name of
// configuration file.
func (e *LocalEnv) Setup(configFile string, verbose, report bool) (err error) {
	if e.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if verbose {
		e.Cfg.Logging.ConsoleLogger.Level = "debug"
	}
	if report {
		if e.Rpt, err = e.Cfg.Reporting.Prepare(); err != nil {
			return fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		name := "default.yaml"
		if len(configFile) > 0 {
			name = filepath.Base(configFile)
		}
		if data, err := config.Dump(e.Cfg); err == nil {
			e.Rpt.StoreData("config/"+name, data)
		}
	}
	if e.Log, err = e.Cfg.Logging.Prepare(e.Rpt); err != nil {
		return fmt.Errorf("unable to prepare logs: %w", err)
	}
	e.RedirectStdLog()
	return nil
}

// Close flushes logs and finishes debug report. Empty panic log is removed
// afterwards. Errors must be reported directly to stderr after Close.
func (e *LocalEnv) Close() (err error) {
	e.RestoreStdLog()

	if e.Rpt != nil {
		if er := e.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
		e.Rpt = nil
	}
	if e.Cfg != nil && len(e.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := e.Cfg.Logging.PanicLogName()
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return err
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}
