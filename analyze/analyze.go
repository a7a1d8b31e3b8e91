// Package analyze runs complete coverage analysis: reads inputs, evaluates
// stylesheet against documents and writes reports.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"csscov/archive"
	"csscov/common"
	"csscov/config"
	"csscov/coverage"
	"csscov/css"
	"csscov/engine"
	"csscov/position"
	"csscov/report"
)

// Evaluator computes match counts for selector groups and decides which
// declarations are supported.
type Evaluator interface {
	Evaluate(ctx context.Context, groups [][]string, decls []string) ([]int, map[string]bool, error)
}

// Options describe single analysis run.
type Options struct {
	Stylesheet         string
	Documents          []string
	LCOVFile           string
	JSONFile           string
	IgnoreSourceMap    bool
	IgnoreDeclarations []string
	IgnoredPseudos     []string
	StdoutFormats      []common.ReportFormat // used when no output file is requested
}

// Analyzer holds what analysis needs from the program environment.
type Analyzer struct {
	log      *zap.Logger
	rpt      *config.Report
	codePage encoding.Encoding
	stdout   io.Writer
}

func New(log *zap.Logger, rpt *config.Report, codePage encoding.Encoding, stdout io.Writer) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Analyzer{log: log, rpt: rpt, codePage: codePage, stdout: stdout}
}

// input is a prepared stylesheet.
type input struct {
	sheet    *css.Stylesheet
	resolver *position.Resolver
	decls    *coverage.Declarations
}

// Run performs analysis and writes requested reports. Nothing is written when
// any step fails, report files are put in place only after all of them were
// rendered and staged.
func (a *Analyzer) Run(ctx context.Context, opts Options) error {
	if len(opts.Stylesheet) == 0 {
		return errors.New("no stylesheet has been specified")
	}
	if len(opts.Documents) == 0 {
		return errors.New("no documents have been specified")
	}

	in, err := a.prepare(opts)
	if err != nil {
		return err
	}

	docs, err := a.loadDocuments(ctx, opts.Documents)
	if err != nil {
		return err
	}

	model, err := a.evaluate(ctx, engine.New(docs, opts.IgnoredPseudos, a.log), in)
	if err != nil {
		return err
	}
	return a.write(model, opts)
}

func (a *Analyzer) prepare(opts Options) (*input, error) {
	data, err := os.ReadFile(opts.Stylesheet)
	if err != nil {
		return nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}
	a.storeCopy("input/"+filepath.Base(opts.Stylesheet), opts.Stylesheet)

	sheet, err := css.NewParser(a.log).Parse(data, opts.Stylesheet)
	if err != nil {
		return nil, err
	}
	a.rpt.StoreData("trees/stylesheet.txt", []byte(sheet.String()))

	resolver, err := position.Load(opts.Stylesheet, data, opts.IgnoreSourceMap, a.log)
	if err != nil {
		return nil, err
	}
	if resolver.Active() && resolver.MapPath() != opts.Stylesheet {
		a.storeCopy("input/"+filepath.Base(resolver.MapPath()), resolver.MapPath())
	}

	return &input{
		sheet:    sheet,
		resolver: resolver,
		decls:    coverage.IndexDeclarations(sheet.Rules, opts.IgnoreDeclarations),
	}, nil
}

func (a *Analyzer) loadDocuments(ctx context.Context, paths []string) ([]*engine.Document, error) {
	docs := make([]*engine.Document, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		packed, err := archive.IsArchive(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read document: %w", err)
		}
		if packed {
			loaded, err := a.unpackDocuments(ctx, path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, loaded...)
		} else {
			doc, err := engine.LoadDocument(path, a.codePage)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		a.storeCopy(fmt.Sprintf("input/documents/%d-%s", i, filepath.Base(path)), path)
	}
	a.log.Debug("Documents loaded", zap.Int("count", len(docs)))
	return docs, nil
}

// unpackDocuments parses every content document of EPUB or zip archive.
func (a *Analyzer) unpackDocuments(ctx context.Context, path string) ([]*engine.Document, error) {
	entries, err := archive.Documents(path)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		a.log.Warn("Archive has no documents", zap.String("archive", path))
	}
	docs := make([]*engine.Document, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := engine.ParseDocument(e.Data, a.codePage)
		if err != nil {
			return nil, fmt.Errorf("unable to parse document '%s' from '%s': %w", e.Name, path, err)
		}
		doc.Path = path + "!" + e.Name
		docs = append(docs, doc)
	}
	a.log.Debug("Archive unpacked", zap.String("archive", path), zap.Int("documents", len(docs)))
	return docs, nil
}

func (a *Analyzer) evaluate(ctx context.Context, ev Evaluator, in *input) (*coverage.Model, error) {
	groups := in.sheet.SelectorGroups()
	counts, supported, err := ev.Evaluate(ctx, groups, in.decls.Keys())
	if err != nil {
		return nil, fmt.Errorf("unable to evaluate stylesheet: %w", err)
	}

	model, err := coverage.NewBuilder(in.resolver, a.log).Build(in.sheet.Rules, counts, in.decls, supported)
	if err != nil {
		return nil, err
	}
	a.rpt.StoreData("trees/coverage.txt", []byte(model.String()))

	var matched int
	for _, c := range counts {
		if c > 0 {
			matched++
		}
	}
	a.log.Info("Stylesheet evaluated",
		zap.Int("style rules", len(groups)),
		zap.Int("matched", matched),
		zap.Int("declarations", in.decls.Len()),
		zap.Int("unsupported", len(in.decls.Unsupported(supported))),
		zap.Int("sources", model.Len()))
	return model, nil
}

func render(m *coverage.Model, format common.ReportFormat, outputFile string) ([]byte, error) {
	switch format {
	case common.ReportFormatLcov:
		return []byte(report.LCOV(m, outputFile)), nil
	case common.ReportFormatJson:
		return report.JSON(m, outputFile)
	default:
		return nil, fmt.Errorf("unsupported report format %s", format)
	}
}

type output struct {
	format common.ReportFormat
	name   string
	data   []byte
	tmp    string
}

func (a *Analyzer) write(m *coverage.Model, opts Options) (err error) {
	var outs []*output
	for _, o := range []*output{
		{format: common.ReportFormatLcov, name: opts.LCOVFile},
		{format: common.ReportFormatJson, name: opts.JSONFile},
	} {
		if len(o.name) > 0 {
			outs = append(outs, o)
		}
	}
	if len(outs) == 0 {
		return a.writeStdout(m, opts.StdoutFormats)
	}

	// every report is rendered and staged next to its destination before any
	// destination is touched
	for _, o := range outs {
		if o.data, err = render(m, o.format, o.name); err != nil {
			return err
		}
	}
	defer func() {
		for _, o := range outs {
			if len(o.tmp) > 0 {
				if er := os.Remove(o.tmp); er != nil && !os.IsNotExist(er) {
					err = multierr.Append(err, fmt.Errorf("unable to remove temporary file: %w", er))
				}
			}
		}
	}()
	for _, o := range outs {
		if o.tmp, err = stage(o.name, o.data); err != nil {
			return fmt.Errorf("unable to write %s report: %w", o.format, err)
		}
	}
	for _, o := range outs {
		if err := os.Rename(o.tmp, o.name); err != nil {
			return fmt.Errorf("unable to write %s report: %w", o.format, err)
		}
		o.tmp = ""
		a.rpt.StoreData("reports/coverage"+o.format.Ext(), o.data)
		a.log.Info("Report written", zap.Stringer("format", o.format), zap.String("file", o.name))
	}
	return nil
}

// stage writes data into temporary file in the directory of name.
func stage(name string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		return "", multierr.Append(err, multierr.Append(f.Close(), os.Remove(f.Name())))
	}
	if err := f.Chmod(0644); err != nil {
		return "", multierr.Append(err, multierr.Append(f.Close(), os.Remove(f.Name())))
	}
	if err := f.Close(); err != nil {
		return "", multierr.Append(err, os.Remove(f.Name()))
	}
	return f.Name(), nil
}

func (a *Analyzer) writeStdout(m *coverage.Model, formats []common.ReportFormat) error {
	if len(formats) == 0 {
		formats = []common.ReportFormat{common.ReportFormatLcov}
	}
	blobs := make([][]byte, 0, len(formats))
	for _, format := range formats {
		data, err := render(m, format, "")
		if err != nil {
			return err
		}
		blobs = append(blobs, data)
	}
	var err error
	for i, data := range blobs {
		if _, er := fmt.Fprintf(a.stdout, "%s\n", data); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to output %s report: %w", formats[i], er))
		}
	}
	return err
}

func (a *Analyzer) storeCopy(name, path string) {
	if err := a.rpt.StoreCopy(name, path); err != nil {
		a.log.Warn("Unable to store file in debug report", zap.String("file", path), zap.Error(err))
	}
}
