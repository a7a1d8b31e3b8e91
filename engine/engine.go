// Package engine evaluates stylesheet against documents: counts elements
// matched by selectors and decides which declarations are supported.
package engine

import (
	"context"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
)

// Engine matches selectors against a fixed set of documents.
type Engine struct {
	log     *zap.Logger
	docs    []*Document
	pseudos pseudoStripper
	cache   map[string]cascadia.Sel // nil value marks selector which failed to compile
}

// New creates engine. Selectors are stripped of pseudos listed in
// ignoredPseudos before matching.
func New(docs []*Document, ignoredPseudos []string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:     log.Named("engine"),
		docs:    docs,
		pseudos: newPseudoStripper(ignoredPseudos),
		cache:   make(map[string]cascadia.Sel),
	}
}

// Evaluate returns one match count per selector group, in order, and the set
// of supported declarations from decls. Count of a group is the sum of
// elements matched by each member selector in every document. Cancellation is
// checked between groups and documents.
func (e *Engine) Evaluate(ctx context.Context, groups [][]string, decls []string) ([]int, map[string]bool, error) {
	counts := make([]int, len(groups))
	for i, group := range groups {
		for _, sel := range group {
			n, err := e.count(ctx, sel)
			if err != nil {
				return nil, nil, err
			}
			counts[i] += n
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
	}

	supported := make(map[string]bool, len(decls))
	for _, key := range decls {
		if SupportsDeclaration(key) {
			supported[key] = true
			continue
		}
		e.log.Warn("Unsupported declaration", zap.String("declaration", key))
	}
	return counts, supported, nil
}

// Count returns number of elements selector matches in all documents.
// Selector which cannot be compiled matches nothing.
func (e *Engine) Count(selector string) int {
	n, _ := e.count(context.Background(), selector)
	return n
}

func (e *Engine) count(ctx context.Context, selector string) (int, error) {
	sel := e.compile(selector)
	if sel == nil {
		return 0, nil
	}
	var n int
	for _, doc := range e.docs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n += len(cascadia.QueryAll(doc.Root, sel))
	}
	return n, nil
}

func (e *Engine) compile(selector string) cascadia.Sel {
	if sel, ok := e.cache[selector]; ok {
		return sel
	}

	var sel cascadia.Sel
	stripped := e.pseudos.strip(selector)
	if len(stripped) == 0 {
		e.log.Debug("Selector is empty after removing ignored pseudos", zap.String("selector", selector))
	} else {
		s, err := cascadia.ParseWithPseudoElement(stripped)
		if err != nil {
			e.log.Warn("Unable to compile selector, assuming no matches",
				zap.String("selector", selector), zap.String("compiled", stripped), zap.Error(err))
		} else {
			sel = s
		}
	}
	e.cache[selector] = sel
	return sel
}
