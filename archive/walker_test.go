package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type zipEntry struct {
	name    string
	content string
}

func writeZip(t *testing.T, name string, entries ...zipEntry) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), name)
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		if strings.HasSuffix(e.name, "/") {
			hdr := &zip.FileHeader{Name: e.name}
			hdr.SetMode(os.ModeDir | 0755)
			if _, err := w.CreateHeader(hdr); err != nil {
				t.Fatalf("Failed to create directory %s: %v", e.name, err)
			}
			continue
		}
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finish zip: %v", err)
	}
	return zipPath
}

func all(string) bool { return true }

func TestWalk(t *testing.T) {
	zipPath := writeZip(t, "test.zip",
		zipEntry{"docs/", ""},
		zipEntry{"docs/index.html", "<p>index</p>"},
		zipEntry{"docs/guide.xhtml", "<p>guide</p>"},
		zipEntry{"styles/site.css", "p{}"},
		zipEntry{"README", "readme"},
	)

	t.Run("documents only", func(t *testing.T) {
		var visited []string
		err := Walk(zipPath, IsDocument, func(archive string, file *zip.File) error {
			if archive != zipPath {
				t.Errorf("archive = %s, want %s", archive, zipPath)
			}
			visited = append(visited, file.Name)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		want := []string{"docs/index.html", "docs/guide.xhtml"}
		if !slices.Equal(visited, want) {
			t.Errorf("visited %v, want %v", visited, want)
		}
	})

	t.Run("directories skipped", func(t *testing.T) {
		var visited int
		if err := Walk(zipPath, all, func(string, *zip.File) error {
			visited++
			return nil
		}); err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		if visited != 4 {
			t.Errorf("visited %d entries, want 4", visited)
		}
	})

	t.Run("content", func(t *testing.T) {
		err := Walk(zipPath, func(name string) bool { return name == "README" }, func(_ string, file *zip.File) error {
			rc, err := file.Open()
			if err != nil {
				return err
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				return err
			}
			if string(data) != "readme" {
				t.Errorf("content = %q, want %q", data, "readme")
			}
			return nil
		})
		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}
	})

	t.Run("early termination", func(t *testing.T) {
		stopErr := errors.New("stop walking")
		var visited int
		err := Walk(zipPath, all, func(string, *zip.File) error {
			visited++
			if visited == 2 {
				return stopErr
			}
			return nil
		})
		if err != stopErr {
			t.Errorf("Walk() error = %v, want %v", err, stopErr)
		}
		if visited != 2 {
			t.Errorf("visited %d files, want 2", visited)
		}
	})
}

func TestWalk_InvalidArchive(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		if err := Walk("/nonexistent/file.zip", all, func(string, *zip.File) error { return nil }); err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		invalidZip := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(invalidZip, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		if err := Walk(invalidZip, all, func(string, *zip.File) error { return nil }); err == nil {
			t.Error("Expected error for invalid zip file")
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		zipPath := writeZip(t, "evil.zip", zipEntry{"../evil.html", "<p>"})
		if err := Walk(zipPath, all, func(string, *zip.File) error { return nil }); err == nil {
			t.Error("Expected error for unsafe entry name")
		}
	})
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"index.html", true},
		{"OEBPS/text/ch1.xhtml", true},
		{"a..b/c.html", true},
		{"../c.html", false},
		{"a/../../c.html", false},
		{"/etc/passwd", false},
		{`\windows\system.ini`, false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsArchive(t *testing.T) {
	dir := t.TempDir()
	html := filepath.Join(dir, "page.html")
	if err := os.WriteFile(html, []byte("<!DOCTYPE html><html><body></body></html>"), 0644); err != nil {
		t.Fatal(err)
	}
	short := filepath.Join(dir, "short")
	if err := os.WriteFile(short, []byte("PK"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{writeZip(t, "docs.zip", zipEntry{"index.html", "<p>"}), true},
		{html, false},
		{short, false},
	}
	for _, tt := range tests {
		got, err := IsArchive(tt.path)
		if err != nil {
			t.Fatalf("IsArchive(%s) error = %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("IsArchive(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}

	if _, err := IsArchive(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing file")
	}
}
