package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListFilesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.TextGrid", "a.textgrid", "c.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := MakeDir(filepath.Join(dir, "sub.TextGrid")); err != nil {
		t.Fatal(err)
	}

	got, err := ListFiles(dir, ".TextGrid")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %v", got)
	}
	if filepath.Base(got[0]) != "a.textgrid" || filepath.Base(got[1]) != "b.TextGrid" {
		t.Errorf("unexpected order: %v", got)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing: %v", err)
	}
	if err := MoveFile(src, dst); err == nil {
		t.Error("expected error moving a missing file")
	}
}

func TestStem(t *testing.T) {
	if got := Stem("/a/b/302_Bonnie_A006_ba.TextGrid"); got != "302_Bonnie_A006_ba" {
		t.Errorf("Stem = %q", got)
	}
}
