// Package report serializes coverage model into LCOV and Istanbul JSON
// formats.
package report

import (
	"net/url"
	"path/filepath"

	"csscov/coverage"
)

// destination returns name under which source file appears in the report.
// Names are resolved against the source map directory (or working directory)
// and made relative to the directory of the report file. With no report file
// absolute path is returned.
func destination(m *coverage.Model, fileName, outputFile string) string {
	if hasScheme(fileName) {
		return fileName
	}

	name := fileName
	if !filepath.IsAbs(name) && m.HasSourceMap() {
		name = filepath.Join(filepath.Dir(m.SourceMapPath()), name)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return fileName
	}
	if len(outputFile) == 0 {
		return filepath.ToSlash(abs)
	}

	base, err := filepath.Abs(filepath.Dir(outputFile))
	if err != nil {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		// different volumes on windows
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// hasScheme detects sources like "webpack://app/main.scss". Single letter
// schemes are windows drive letters.
func hasScheme(name string) bool {
	u, err := url.Parse(name)
	if err != nil {
		return false
	}
	return len(u.Scheme) > 1
}
