package position

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var mappingURLPattern = regexp.MustCompile(`sourceMappingURL=([^\s*]+)`)

// MappingURL returns value of the sourceMappingURL annotation, last one wins.
func MappingURL(content []byte) (string, bool) {
	all := mappingURLPattern.FindAllSubmatch(content, -1)
	if len(all) == 0 {
		return "", false
	}
	return string(all[len(all)-1][1]), true
}

// Load prepares resolver for the stylesheet. Unless ignoreMap is set and
// stylesheet content carries sourceMappingURL annotation the referenced
// source map is loaded, relative references are resolved against stylesheet
// directory. Inline (data:) maps are supported, their map path is the
// stylesheet itself.
func Load(cssFile string, content []byte, ignoreMap bool, log *zap.Logger) (*Resolver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("position")

	ref, found := MappingURL(content)
	switch {
	case ignoreMap:
		if found {
			log.Debug("Ignoring source map", zap.String("sourceMappingURL", ref))
		}
		return NewIdentity(cssFile), nil
	case !found:
		log.Debug("No source map annotation found", zap.String("css", cssFile))
		return NewIdentity(cssFile), nil
	}

	var (
		data    []byte
		mapPath string
		err     error
	)
	if strings.HasPrefix(ref, "data:") {
		if data, err = decodeDataURL(ref); err != nil {
			return nil, fmt.Errorf("unable to decode inline source map in '%s': %w", cssFile, err)
		}
		mapPath = cssFile
		log.Debug("Using inline source map", zap.Int("bytes", len(data)))
	} else {
		if mapPath, err = mapLocation(cssFile, ref); err != nil {
			return nil, err
		}
		if data, err = os.ReadFile(mapPath); err != nil {
			return nil, fmt.Errorf("unable to read source map: %w", err)
		}
		log.Debug("Using sourceMappingURL", zap.String("location", mapPath))
	}

	sm, err := ParseSourceMap(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse source map '%s': %w", mapPath, err)
	}
	return New(cssFile, mapPath, sm), nil
}

// mapLocation resolves source map reference against stylesheet location.
func mapLocation(cssFile, ref string) (string, error) {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		if u.Scheme != "file" {
			return "", fmt.Errorf("unsupported source map location '%s'", ref)
		}
		return filepath.FromSlash(u.Path), nil
	}
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	ref = filepath.FromSlash(ref)
	if filepath.IsAbs(ref) {
		return ref, nil
	}
	return filepath.Join(filepath.Dir(cssFile), ref), nil
}

// decodeDataURL handles data:[<mediatype>][;base64],<data>.
func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, found := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !found {
		return nil, fmt.Errorf("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed base64 payload: %w", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}
	return []byte(data), nil
}
