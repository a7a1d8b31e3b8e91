package position

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/go-sourcemap/sourcemap"
)

// segment is a single decoded mapping. Columns and lines are 0-based, source
// is empty for segments which do not point into original sources.
type segment struct {
	genColumn int
	source    string
	name      string
	line      int
	column    int
}

// SourceMap is decoded source map v3 (regular or indexed). Segments are kept
// per generated line sorted by generated column.
type SourceMap struct {
	lines [][]segment
}

type rawOffset struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type rawSection struct {
	Offset rawOffset `json:"offset"`
	Map    *rawMap   `json:"map"`
}

type rawMap struct {
	Version    int               `json:"version"`
	SourceRoot string            `json:"sourceRoot"`
	Sources    []string          `json:"sources"`
	Names      []json.RawMessage `json:"names"`
	Mappings   string            `json:"mappings"`
	Sections   []rawSection      `json:"sections"`
}

// ParseSourceMap decodes source map. Map is validated by go-sourcemap first,
// mappings are then decoded keeping every segment, including those pointing
// to the very beginning of original source.
func ParseSourceMap(data []byte) (*SourceMap, error) {
	data = stripXSSI(data)
	if _, err := sourcemap.Parse("", data); err != nil {
		return nil, err
	}

	var raw rawMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	sm := &SourceMap{}
	if err := sm.add(&raw, 0, 0); err != nil {
		return nil, err
	}
	for _, segs := range sm.lines {
		slices.SortStableFunc(segs, func(a, b segment) int { return a.genColumn - b.genColumn })
	}
	return sm, nil
}

// stripXSSI removes optional ")]}'" protection prefix.
func stripXSSI(data []byte) []byte {
	s := string(data)
	if strings.HasPrefix(s, ")]}'") {
		if _, rest, ok := strings.Cut(s, "\n"); ok {
			return []byte(rest)
		}
	}
	return data
}

func (sm *SourceMap) add(raw *rawMap, lineOffset, columnOffset int) error {
	if raw.Version != 3 {
		return fmt.Errorf("unsupported source map version %d", raw.Version)
	}
	if len(raw.Sections) > 0 {
		for i, sec := range raw.Sections {
			if sec.Map == nil {
				return fmt.Errorf("section %d: only embedded maps are supported", i)
			}
			if err := sm.add(sec.Map, lineOffset+sec.Offset.Line, columnOffset+sec.Offset.Column); err != nil {
				return fmt.Errorf("section %d: %w", i, err)
			}
		}
		return nil
	}

	sources := make([]string, len(raw.Sources))
	for i, s := range raw.Sources {
		sources[i] = joinRoot(raw.SourceRoot, s)
	}
	return decodeMappings(raw.Mappings, func(genLine int, seg segment, fields []int) error {
		if len(fields) >= 4 {
			if fields[1] < 0 || fields[1] >= len(sources) {
				return fmt.Errorf("source index %d is out of range", fields[1])
			}
			seg.source = sources[fields[1]]
			if len(fields) == 5 && fields[4] >= 0 && fields[4] < len(raw.Names) {
				seg.name = rawName(raw.Names[fields[4]])
			}
		}
		if genLine == 0 {
			seg.genColumn += columnOffset
		}
		genLine += lineOffset
		for len(sm.lines) <= genLine {
			sm.lines = append(sm.lines, nil)
		}
		sm.lines[genLine] = append(sm.lines[genLine], seg)
		return nil
	})
}

func joinRoot(root, source string) string {
	switch {
	case len(root) == 0, path.IsAbs(source), strings.Contains(source, "://"):
		return source
	case strings.Contains(root, "://"):
		return strings.TrimSuffix(root, "/") + "/" + source
	}
	return path.Join(root, source)
}

// rawName returns names entry, non-string entries are kept as JSON text.
func rawName(raw json.RawMessage) string {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	return string(raw)
}

var errVLQ = errors.New("malformed mappings")

// decodeMappings walks VLQ encoded mappings. Generated column is relative
// within a line, all other fields are relative across the whole string.
// fields holds absolute values: generated column, source index, original
// line, original column and name index, as many as the segment carries.
func decodeMappings(mappings string, emit func(genLine int, seg segment, fields []int) error) error {
	var genLine, genColumn, source, line, col, name int
	fields := make([]int, 0, 5)
	for i := 0; i < len(mappings); {
		switch mappings[i] {
		case ';':
			genLine++
			genColumn = 0
			i++
			continue
		case ',':
			i++
			continue
		}

		fields = fields[:0]
		for i < len(mappings) && mappings[i] != ',' && mappings[i] != ';' {
			v, n, err := decodeVLQ(mappings[i:])
			if err != nil {
				return err
			}
			fields = append(fields, v)
			i += n
		}

		switch len(fields) {
		case 1, 4, 5:
		default:
			return fmt.Errorf("%w: segment with %d fields on line %d", errVLQ, len(fields), genLine+1)
		}
		genColumn += fields[0]
		fields[0] = genColumn
		seg := segment{genColumn: genColumn}
		if len(fields) >= 4 {
			source += fields[1]
			line += fields[2]
			col += fields[3]
			fields[1], fields[2], fields[3] = source, line, col
			seg.line, seg.column = line, col
		}
		if len(fields) == 5 {
			name += fields[4]
			fields[4] = name
		}
		if err := emit(genLine, seg, fields); err != nil {
			return err
		}
	}
	return nil
}

const vlqAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// decodeVLQ returns decoded value and number of bytes consumed.
func decodeVLQ(s string) (int, int, error) {
	var (
		value int
		shift uint
	)
	for i := 0; i < len(s); i++ {
		digit := strings.IndexByte(vlqAlphabet, s[i])
		if digit < 0 {
			return 0, 0, fmt.Errorf("%w: unexpected character %q", errVLQ, s[i])
		}
		if shift > 30 {
			return 0, 0, fmt.Errorf("%w: value overflow", errVLQ)
		}
		value |= (digit & 0x1f) << shift
		if digit&0x20 == 0 {
			if value&1 != 0 {
				return -(value >> 1), i + 1, nil
			}
			return value >> 1, i + 1, nil
		}
		shift += 5
	}
	return 0, 0, fmt.Errorf("%w: unterminated value", errVLQ)
}

// Source returns original position for generated one. Lookup never leaves
// generated line: the mapping with greatest generated column not exceeding
// genColumn is used. genLine is 1-based, genColumn 0-based, returned line is
// 1-based and column 0-based.
func (sm *SourceMap) Source(genLine, genColumn int) (source, name string, line, column int, ok bool) {
	if genLine < 1 || genLine > len(sm.lines) {
		return "", "", 0, 0, false
	}
	segs := sm.lines[genLine-1]
	i, found := slices.BinarySearchFunc(segs, genColumn, func(s segment, col int) int { return s.genColumn - col })
	if found {
		// last of equal columns wins
		for i+1 < len(segs) && segs[i+1].genColumn == genColumn {
			i++
		}
	} else {
		if i == 0 {
			return "", "", 0, 0, false
		}
		i--
	}
	s := segs[i]
	if len(s.source) == 0 {
		return "", "", 0, 0, false
	}
	return s.source, s.name, s.line + 1, s.column, true
}
