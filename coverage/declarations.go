package coverage

import (
	"strings"

	"csscov/css"
)

// Declarations indexes declarations of style rules by canonical text. Keys
// are kept in order of first appearance, every physical declaration is
// recorded exactly once.
type Declarations struct {
	keys  []string
	spans map[string][]css.Span
}

// IndexDeclarations collects declarations of all style rules. Declarations of
// properties listed in ignore (case insensitive) are left out.
func IndexDeclarations(rules []css.Rule, ignore []string) *Declarations {
	skip := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		if name = strings.ToLower(strings.TrimSpace(name)); len(name) > 0 {
			skip[name] = struct{}{}
		}
	}

	d := &Declarations{spans: make(map[string][]css.Span)}
	for i := range rules {
		if !rules[i].IsStyle() {
			continue
		}
		for _, decl := range rules[i].Declarations {
			if _, ignored := skip[strings.ToLower(decl.Property)]; ignored {
				continue
			}
			d.add(decl.Key(), decl.Span)
		}
	}
	return d
}

func (d *Declarations) add(key string, span css.Span) {
	if _, exists := d.spans[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.spans[key] = append(d.spans[key], span)
}

// Keys returns unique declaration texts in order of first appearance.
func (d *Declarations) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Spans returns all locations of the declaration text.
func (d *Declarations) Spans(key string) []css.Span {
	return d.spans[key]
}

// Len returns number of unique declaration texts.
func (d *Declarations) Len() int {
	return len(d.keys)
}

// Unsupported returns keys not present in supported set, in order of first
// appearance.
func (d *Declarations) Unsupported(supported map[string]bool) []string {
	var out []string
	for _, key := range d.keys {
		if !supported[key] {
			out = append(out, key)
		}
	}
	return out
}
