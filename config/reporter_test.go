package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport_Archive(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if r.Name() != conf.Destination {
		t.Errorf("Name() = %q, want %q", r.Name(), conf.Destination)
	}

	css := filepath.Join(dir, "site.css")
	if err := os.WriteFile(css, []byte("a { color: red }"), 0644); err != nil {
		t.Fatal(err)
	}
	log := filepath.Join(dir, "final.log")
	if err := os.WriteFile(log, []byte("log line"), 0644); err != nil {
		t.Fatal(err)
	}

	r.Store("final.log", log)
	r.StoreData("trees/model.txt", []byte("model"))
	if err := r.StoreCopy("input/site.css", css); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	// snapshot must not see later changes
	if err := os.WriteFile(css, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.StoreCopy("input/site.css", css); err != nil {
		t.Fatalf("second StoreCopy() error = %v", err)
	}
	r.Store("missing.log", filepath.Join(dir, "missing.log"))
	copies := append([]string(nil), r.copies...)

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, conf.Destination)
	if files["final.log"] != "log line" {
		t.Errorf("final.log = %q", files["final.log"])
	}
	if files["trees/model.txt"] != "model" {
		t.Errorf("trees/model.txt = %q", files["trees/model.txt"])
	}
	if files["input/site.css"] != "a { color: red }" {
		t.Errorf("input/site.css = %q", files["input/site.css"])
	}
	var versioned bool
	for name, content := range files {
		if strings.HasPrefix(name, "input/site.css-") && content == "changed" {
			versioned = true
		}
	}
	if !versioned {
		t.Error("second copy was not stored under versioned name")
	}
	if _, ok := files["missing.log"]; ok {
		t.Error("absent file should be skipped")
	}
	if !strings.Contains(files["MANIFEST"], "trees/model.txt") {
		t.Errorf("MANIFEST = %q", files["MANIFEST"])
	}

	for _, d := range copies {
		if _, err := os.Stat(d); !os.IsNotExist(err) {
			t.Errorf("snapshot directory %s was not removed", d)
		}
	}
}

func TestReport_StoreCopyDirectory(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.StoreCopy("dir", t.TempDir()); err == nil {
		t.Error("expected error storing directory copy")
	}
	if err := r.StoreCopy("missing", filepath.Join(t.TempDir(), "none")); err == nil {
		t.Error("expected error storing missing file")
	}
}

func TestReport_OverwritePanics(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("x", []byte("1"))
	defer func() {
		if recover() == nil {
			t.Error("StoreData() should panic on duplicate name")
		}
	}()
	r.StoreData("x", []byte("2"))
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if err := r.StoreCopy("a", "b"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name() = %q", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
