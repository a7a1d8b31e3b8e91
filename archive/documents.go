package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/maruel/natural"
	"golang.org/x/net/html/charset"
)

// Entry is a single document extracted from archive.
type Entry struct {
	Name string // path inside archive
	Data []byte
}

const (
	containerPath = "META-INF/container.xml"
	xhtmlMedia    = "application/xhtml+xml"
)

// IsDocument tells (X)HTML documents by name.
func IsDocument(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm", ".xhtml", ".xht":
		return true
	}
	return false
}

// Documents returns content documents of the archive. For EPUB books these
// are package manifest XHTML items in reading (spine) order followed by the
// rest of manifest XHTML items, for other archives all (X)HTML files in
// natural name order.
func Documents(name string) ([]Entry, error) {
	files := make(map[string][]byte)
	if err := Walk(name, wanted, func(_ string, f *zip.File) error {
		data, err := readFile(f)
		if err != nil {
			return fmt.Errorf("unable to read '%s' from '%s': %w", f.Name, name, err)
		}
		files[f.Name] = data
		return nil
	}); err != nil {
		return nil, err
	}

	var (
		names []string
		err   error
	)
	if c, ok := files[containerPath]; ok {
		if names, err = packageDocuments(c, files); err != nil {
			return nil, fmt.Errorf("unable to read EPUB package of '%s': %w", name, err)
		}
	} else {
		for n := range files {
			if IsDocument(n) {
				names = append(names, n)
			}
		}
		sort.Sort(natural.StringSlice(names))
	}

	entries := make([]Entry, 0, len(names))
	for _, n := range names {
		data, ok := files[n]
		if !ok {
			return nil, fmt.Errorf("document '%s' listed in package is absent from '%s'", n, name)
		}
		entries = append(entries, Entry{Name: n, Data: data})
	}
	return entries, nil
}

// wanted selects archive entries Documents needs: content documents and
// EPUB package metadata.
func wanted(name string) bool {
	return name == containerPath || strings.EqualFold(path.Ext(name), ".opf") || IsDocument(name)
}

func readXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// packageDocuments reads container and package (OPF) documents.
func packageDocuments(container []byte, files map[string][]byte) ([]string, error) {
	doc, err := readXML(container)
	if err != nil {
		return nil, fmt.Errorf("container: %w", err)
	}
	rootfile := doc.FindElement("//rootfile")
	if rootfile == nil {
		return nil, fmt.Errorf("container: no rootfile")
	}
	opfPath := rootfile.SelectAttrValue("full-path", "")
	opf, ok := files[opfPath]
	if !ok {
		return nil, fmt.Errorf("package document '%s' not found", opfPath)
	}

	doc, err = readXML(opf)
	if err != nil {
		return nil, fmt.Errorf("package: %w", err)
	}
	pkg := doc.Root()
	if pkg == nil {
		return nil, fmt.Errorf("package: empty document")
	}

	base := path.Dir(opfPath)
	items := make(map[string]string)
	var order []string
	if manifest := pkg.SelectElement("manifest"); manifest != nil {
		for _, item := range manifest.SelectElements("item") {
			if item.SelectAttrValue("media-type", "") != xhtmlMedia {
				continue
			}
			id := item.SelectAttrValue("id", "")
			items[id] = path.Join(base, item.SelectAttrValue("href", ""))
			order = append(order, id)
		}
	}

	var names []string
	seen := make(map[string]bool)
	if spine := pkg.SelectElement("spine"); spine != nil {
		for _, ref := range spine.SelectElements("itemref") {
			id := ref.SelectAttrValue("idref", "")
			if n, ok := items[id]; ok && !seen[id] {
				names = append(names, n)
				seen[id] = true
			}
		}
	}
	for _, id := range order {
		if !seen[id] {
			names = append(names, items[id])
			seen[id] = true
		}
	}
	return names, nil
}
