package coverage

import (
	"go.uber.org/zap"

	"csscov/css"
	"csscov/position"
)

// Builder produces coverage model for a single stylesheet.
type Builder struct {
	log      *zap.Logger
	resolver *position.Resolver
}

// NewBuilder creates builder translating positions with resolver.
func NewBuilder(resolver *position.Resolver, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{log: log.Named("coverage"), resolver: resolver}
}

// Build walks rules in document order assigning counts to style rules and
// then overlays unsupported declarations with zero count. counts must have
// exactly one entry per style rule, supported holds declaration keys
// evaluator understood.
func (b *Builder) Build(rules []css.Rule, counts []int, decls *Declarations, supported map[string]bool) (*Model, error) {
	var styles int
	for i := range rules {
		if rules[i].IsStyle() {
			styles++
		}
	}
	if styles != len(counts) {
		return nil, &IntegrityError{Expected: styles, Actual: len(counts)}
	}

	m := newModel(b.resolver.MapPath())

	var i int
	for _, rule := range rules {
		if !rule.IsStyle() {
			continue
		}
		count := max(counts[i], 0)
		i++

		if err := b.record(m, rule.Span, count); err != nil {
			return nil, err
		}
		if count == 0 {
			b.log.Debug("Selector matched nothing", zap.Strings("selectors", rule.Selectors), zap.Stringer("span", rule.Span))
		}
	}

	if decls != nil {
		if err := b.overlayUnsupported(m, decls, supported); err != nil {
			return nil, err
		}
	}

	b.log.Debug("Coverage model ready", zap.Int("files", m.Len()), zap.Int("style rules", styles))
	return m, nil
}

// overlayUnsupported adds zero count record for every location of every
// declaration evaluator did not understand.
func (b *Builder) overlayUnsupported(m *Model, decls *Declarations, supported map[string]bool) error {
	for _, key := range decls.Unsupported(supported) {
		spans := decls.Spans(key)
		b.log.Debug("Unsupported declaration", zap.String("declaration", key), zap.Int("locations", len(spans)))
		for _, span := range spans {
			if err := b.record(m, span, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) record(m *Model, span css.Span, count int) error {
	start, end := b.resolver.ResolveSpan(span)
	if !start.Ok() {
		return &UnresolvedSourceMapError{SourceMap: b.resolver.MapPath(), Span: span}
	}
	if b.resolver.Active() && b.log.Core().Enabled(zap.DebugLevel) {
		b.log.Debug("Resolved", zap.Stringer("css", span.Start), zap.String("source", start.Source),
			zap.Int("line", start.Line), zap.Int("column", start.Column), zap.Stringer("outcome", start.Outcome))
	}
	m.add(start.Source, Record{
		StartLine:   start.Line,
		EndLine:     max(end.Line, start.Line),
		StartColumn: start.Column,
		EndColumn:   end.Column,
		Count:       count,
	})
	return nil
}
