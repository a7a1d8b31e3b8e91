package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// Document is a parsed HTML or XHTML document selectors are matched against.
type Document struct {
	Path string
	Root *html.Node
}

// LoadDocument reads and parses document. When enc is nil character set is
// detected from BOM and meta tags, otherwise enc is forced.
func LoadDocument(path string, enc encoding.Encoding) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}
	doc, err := ParseDocument(data, enc)
	if err != nil {
		return nil, fmt.Errorf("unable to parse document '%s': %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// ParseDocument parses document from memory.
func ParseDocument(data []byte, enc encoding.Encoding) (*Document, error) {
	var r io.Reader
	if enc != nil {
		r = enc.NewDecoder().Reader(bytes.NewReader(data))
	} else {
		cr, err := charset.NewReader(bytes.NewReader(data), "text/html")
		if err != nil {
			return nil, fmt.Errorf("unable to detect character set: %w", err)
		}
		r = cr
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{Root: root}, nil
}
