package project_test

import (
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/project"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sales")
	p := project.NewProject("sales", "q3 numbers", dir)
	p.Metadata = &dataset.Metadata{Rows: 2, Cols: 1, Columns: []dataset.ColumnDescriptor{{Name: "a", Type: dataset.Numerical, UniqueValues: 2}}, FirstNRows: "[]"}
	p.Snapshot = "snapshot-1.arrow"
	if err := p.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !project.Exists(dir) {
		t.Fatalf("expected project.json in %s", dir)
	}

	got, err := project.LoadProject(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != p.ID || got.Name != "sales" || got.Description != "q3 numbers" {
		t.Fatalf("unexpected project: %+v", got)
	}
	if got.Metadata == nil || got.Metadata.Rows != 2 || got.Metadata.Columns[0].Type != dataset.Numerical {
		t.Fatalf("metadata not persisted: %+v", got.Metadata)
	}
	if got.SnapshotPath() != filepath.Join(dir, "snapshot-1.arrow") {
		t.Fatalf("snapshot path = %q", got.SnapshotPath())
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	_, err := project.LoadProject(filepath.Join(t.TempDir(), "ghost"))
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestSaveWithoutRootDir(t *testing.T) {
	p := project.NewProject("x", "", "")
	if err := p.Save(); err == nil {
		t.Fatalf("expected error without root dir")
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"sales", "Q3-2024", "a.b_c"} {
		if err := project.ValidateName(ok); err != nil {
			t.Errorf("%q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"", "../etc", "has space", ".hidden"} {
		if err := project.ValidateName(bad); !errs.IsValidation(err) {
			t.Errorf("%q: expected validation error, got %v", bad, err)
		}
	}
}
