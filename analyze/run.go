package analyze

import (
	"context"
	"slices"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"csscov/state"
)

// Run is the action of the report command.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("analyze")
	cfg := env.Cfg.Coverage

	if cmd.Args().Len() > 0 {
		log.Warn("Malformed command line, unexpected arguments", zap.Strings("ignoring", cmd.Args().Slice()))
	}

	opts := Options{
		Stylesheet:         cmd.String("css"),
		Documents:          cmd.StringSlice("html"),
		LCOVFile:           cmd.String("lcov"),
		JSONFile:           cmd.String("json"),
		IgnoreSourceMap:    cfg.IgnoreSourceMap || cmd.Bool("ignore-source-map"),
		IgnoreDeclarations: append(slices.Clone(cfg.IgnoreDeclarations), splitList(cmd.String("ignore-declarations"))...),
		IgnoredPseudos:     cfg.IgnoredPseudos,
		StdoutFormats:      cfg.Formats,
	}

	// character set from command line takes precedence over configuration
	if cp := cmd.String("encoding"); len(cp) > 0 {
		enc, err := ianaindex.IANA.Encoding(cp)
		if err != nil || enc == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
		} else {
			env.CodePage = enc
		}
	} else if enc, err := cfg.Encoding(); err != nil {
		log.Warn("Unknown character set in configuration. Ignoring...", zap.Error(err))
	} else {
		env.CodePage = enc
	}
	if env.CodePage != nil {
		n, _ := ianaindex.IANA.Name(env.CodePage)
		log.Debug("Forcefully decoding all documents", zap.String("charset", n))
	}

	log.Info("Processing starting", zap.String("css", opts.Stylesheet), zap.Strings("html", opts.Documents))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return New(log, env.Rpt, env.CodePage, env.Stdout).Run(ctx, opts)
}

// splitList splits comma separated list, trims and lower-cases its items.
func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); len(item) > 0 {
			out = append(out, item)
		}
	}
	return out
}
