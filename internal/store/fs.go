package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/project"
	"github.com/KaramelBytes/vizprep-cli/internal/snapshot"
	"github.com/KaramelBytes/vizprep-cli/internal/utils"
)

// FSStore keeps one directory per project under Root. A commit writes a new
// snapshot-<uuid>.arrow file, then atomically rewrites project.json to point
// at it; the rename of project.json is the commit point. The committed and
// the previous generation are kept on disk.
type FSStore struct {
	Root   string
	logger *zap.Logger
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string, logger *zap.Logger) (*FSStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := utils.EnsureProjectDir(root); err != nil {
		return nil, fmt.Errorf("ensure projects dir: %w", err)
	}
	return &FSStore{Root: root, logger: logger}, nil
}

func (s *FSStore) dir(name string) string { return filepath.Join(s.Root, name) }

func (s *FSStore) Create(ctx context.Context, p *project.Project, t *dataset.Table, md *dataset.Metadata) error {
	if err := project.ValidateName(p.Name); err != nil {
		return err
	}
	dir := s.dir(p.Name)
	if project.Exists(dir) {
		return errs.Validation("name", "project %q already exists", p.Name)
	}
	if err := utils.EnsureProjectDir(dir); err != nil {
		return fmt.Errorf("ensure project dir: %w", err)
	}
	p.SetRootDir(dir)
	file, err := s.writeSnapshot(ctx, dir, t)
	if err != nil {
		return err
	}
	p.Snapshot = file
	p.Metadata = md
	if err := p.Save(); err != nil {
		_ = os.Remove(filepath.Join(dir, file))
		return fmt.Errorf("save project: %w", err)
	}
	s.logger.Info("project created", zap.String("project", p.Name), zap.Int("rows", md.Rows), zap.Int("cols", md.Cols))
	return nil
}

func (s *FSStore) Get(ctx context.Context, name string) (*project.Project, error) {
	if err := project.ValidateName(name); err != nil {
		return nil, errs.NotFound("project", name)
	}
	return project.LoadProject(s.dir(name))
}

func (s *FSStore) List(ctx context.Context) ([]*project.Project, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read projects dir: %w", err)
	}
	var out []*project.Project
	for _, e := range entries {
		if !e.IsDir() || !project.Exists(s.dir(e.Name())) {
			continue
		}
		p, err := project.LoadProject(s.dir(e.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable project", zap.String("dir", e.Name()), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// snapshotReadAttempts bounds how often LoadSnapshot follows project.json
// again after the file it named was pruned by a concurrent commit.
const snapshotReadAttempts = 5

func (s *FSStore) LoadSnapshot(ctx context.Context, name string) (*dataset.Table, error) {
	var lastErr error
	for attempt := 0; attempt < snapshotReadAttempts; attempt++ {
		p, err := s.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		t, err := s.readSnapshot(p)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("snapshot replaced while opening, retrying", zap.String("project", name), zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

func (s *FSStore) readSnapshot(p *project.Project) (*dataset.Table, error) {
	path := p.SnapshotPath()
	if path == "" {
		return nil, fmt.Errorf("project %q has no snapshot", p.Name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	t, err := snapshot.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", p.Snapshot, err)
	}
	return t, nil
}

func (s *FSStore) Commit(ctx context.Context, name string, t *dataset.Table, md *dataset.Metadata) error {
	p, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	dir := p.RootDir()
	file, err := s.writeSnapshot(ctx, dir, t)
	if err != nil {
		return err
	}
	previous := p.Snapshot
	p.Snapshot = file
	p.Metadata = md
	if err := p.Save(); err != nil {
		_ = os.Remove(filepath.Join(dir, file))
		s.logger.Error("commit failed", zap.String("project", name), zap.Error(err))
		return fmt.Errorf("save project: %w", err)
	}
	s.prune(name, dir, file, previous)
	s.logger.Debug("snapshot committed", zap.String("project", name), zap.String("file", file))
	return nil
}

// prune removes snapshot generations older than the previous one. The
// previous generation stays on disk so readers holding the old project.json
// can still open it.
func (s *FSStore) prune(name, dir string, keep ...string) {
	matches, err := filepath.Glob(filepath.Join(dir, "snapshot-*.arrow"))
	if err != nil {
		return
	}
	for _, m := range matches {
		base := filepath.Base(m)
		if slices.Contains(keep, base) {
			continue
		}
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("stale snapshot not removed", zap.String("project", name), zap.String("file", base), zap.Error(err))
		}
	}
}

func (s *FSStore) Delete(ctx context.Context, name string) error {
	if _, err := s.Get(ctx, name); err != nil {
		return err
	}
	if err := os.RemoveAll(s.dir(name)); err != nil {
		return fmt.Errorf("remove project: %w", err)
	}
	s.logger.Info("project deleted", zap.String("project", name))
	return nil
}

func (s *FSStore) Close() error { return nil }

func (s *FSStore) writeSnapshot(ctx context.Context, dir string, t *dataset.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file := "snapshot-" + uuid.NewString() + ".arrow"
	err := utils.SafeWriteWith(filepath.Join(dir, file), func(w io.Writer) error {
		return snapshot.Encode(w, t)
	})
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return file, nil
}
