package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/utils"
	"github.com/google/uuid"
)

const (
	projectFileName = "project.json"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// Project is a dataset workspace: the record that owns one table snapshot
// and the metadata synthesized from it.
type Project struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Source      *Source           `json:"source,omitempty"`
	Metadata    *dataset.Metadata `json:"metadata"`
	// Snapshot names the committed snapshot file inside the project
	// directory. Only the filesystem store uses it.
	Snapshot  string    `json:"snapshot,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

// Source records where the initial snapshot was imported from.
type Source struct {
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	Bytes      int64     `json:"bytes"`
	ImportedAt time.Time `json:"imported_at"`
}

// ValidateName checks that name is usable as a directory and URL segment.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return errs.Validation("name", "invalid project name %q (letters, digits, '.', '_', '-'; max 64)", name)
	}
	return nil
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, projectFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("project", filepath.Base(dir))
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	p.rootDir = dir
	return &p, nil
}

// Exists reports whether dir holds a project.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, projectFileName))
	return err == nil
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// SetRootDir attaches the project to a directory.
func (p *Project) SetRootDir(dir string) { p.rootDir = dir }

// SnapshotPath is the absolute path of the committed snapshot, or "" if none.
func (p *Project) SnapshotPath() string {
	if p.Snapshot == "" || p.rootDir == "" {
		return ""
	}
	return filepath.Join(p.rootDir, p.Snapshot)
}

// Save writes project.json using atomic write. Once the rename lands the
// record, its metadata and its snapshot reference change together.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := utils.EnsureProjectDir(p.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	p.UpdatedAt = time.Now().UTC()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, projectFileName), data)
}
