package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/project"
)

func sampleTable() *dataset.Table {
	return dataset.MustNew(
		dataset.NewNumericColumn("age", []float64{25, 30, math.NaN(), 45}),
		dataset.NewTextColumn("city", []string{"NY", "LA", "NY", "SF"}),
	)
}

func synth(t *testing.T, tbl *dataset.Table) *dataset.Metadata {
	t.Helper()
	md, err := dataset.Synthesize(context.Background(), tbl)
	require.NoError(t, err)
	return md
}

// exerciseStore runs the same lifecycle against any backend.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	tbl := sampleTable()
	p := project.NewProject("people", "demo", "")
	require.NoError(t, s.Create(ctx, p, tbl, synth(t, tbl)))

	err := s.Create(ctx, project.NewProject("people", "", ""), tbl, synth(t, tbl))
	assert.True(t, errs.IsValidation(err), "duplicate create: %v", err)

	got, err := s.Get(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 4, got.Metadata.Rows)

	loaded, err := s.LoadSnapshot(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "city"}, loaded.Names())

	dropped, err := loaded.Drop("city")
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, "people", dropped, synth(t, dropped)))

	got, err = s.Get(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Metadata.Cols)
	reloaded, err := s.LoadSnapshot(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, reloaded.Names())

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "people", list[0].Name)

	assert.True(t, errs.IsNotFound(s.Commit(ctx, "ghost", dropped, synth(t, dropped))))
	_, err = s.LoadSnapshot(ctx, "ghost")
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, s.Delete(ctx, "people"))
	_, err = s.Get(ctx, "people")
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errs.IsNotFound(s.Delete(ctx, "people")))
}

func TestFSStoreLifecycle(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), nil)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFSStoreCommitKeepsTwoGenerations(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFSStore(root, nil)
	require.NoError(t, err)
	tbl := sampleTable()
	require.NoError(t, s.Create(ctx, project.NewProject("p", "", ""), tbl, synth(t, tbl)))
	first, err := s.Get(ctx, "p")
	require.NoError(t, err)

	require.NoError(t, s.Commit(ctx, "p", tbl, synth(t, tbl)))
	matches, err := filepath.Glob(filepath.Join(root, "p", "snapshot-*.arrow"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	require.NoError(t, s.Commit(ctx, "p", tbl, synth(t, tbl)))
	matches, err = filepath.Glob(filepath.Join(root, "p", "snapshot-*.arrow"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.NoFileExists(t, first.SnapshotPath())
}

func TestFSStoreLoadFollowsPrunedSnapshot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFSStore(root, nil)
	require.NoError(t, err)
	tbl := sampleTable()
	require.NoError(t, s.Create(ctx, project.NewProject("p", "", ""), tbl, synth(t, tbl)))
	dropped, err := tbl.Drop("city")
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, "p", dropped, synth(t, dropped)))

	// A pruned generation reads as not-exist, which LoadSnapshot retries.
	stale, err := s.Get(ctx, "p")
	require.NoError(t, err)
	require.NoError(t, os.Remove(stale.SnapshotPath()))
	_, err = s.readSnapshot(stale)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, s.Commit(ctx, "p", dropped, synth(t, dropped)))
	got, err := s.LoadSnapshot(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, got.Names())
}

func TestFSStoreConcurrentCommitAndLoad(t *testing.T) {
	ctx := context.Background()
	s, err := NewFSStore(t.TempDir(), nil)
	require.NoError(t, err)
	tbl := sampleTable()
	md := synth(t, tbl)
	require.NoError(t, s.Create(ctx, project.NewProject("p", "", ""), tbl, md))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got, err := s.LoadSnapshot(ctx, "p")
				if err == nil && got.NumRows() != 4 {
					err = errors.New("partial snapshot")
				}
				if err != nil {
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		require.NoError(t, s.Commit(ctx, "p", tbl, md))
	}
	close(stop)
	wg.Wait()
	assert.Empty(t, failures)
}

func TestFSStoreCancelledCommitKeepsState(t *testing.T) {
	root := t.TempDir()
	s, err := NewFSStore(root, nil)
	require.NoError(t, err)
	tbl := sampleTable()
	require.NoError(t, s.Create(context.Background(), project.NewProject("p", "", ""), tbl, synth(t, tbl)))
	before, err := os.ReadFile(filepath.Join(root, "p", "project.json"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dropped, _ := tbl.Drop("age")
	require.Error(t, s.Commit(ctx, "p", dropped, synth(t, dropped)))

	after, err := os.ReadFile(filepath.Join(root, "p", "project.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "vizprep.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}

func TestSQLStoreCommitRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE projects SET snapshot = ?, metadata = ?, updated_at = ? WHERE name = ?`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "people").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	s := NewSQLStore(db, nil)
	tbl := sampleTable()
	err = s.Commit(context.Background(), "people", tbl, synth(t, tbl))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreCommitUnknownProjectRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE projects`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	s := NewSQLStore(db, nil)
	tbl := sampleTable()
	err = s.Commit(context.Background(), "ghost", tbl, synth(t, tbl))
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreCommitSucceeds(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE projects`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewSQLStore(db, nil)
	tbl := sampleTable()
	require.NoError(t, s.Commit(context.Background(), "people", tbl, synth(t, tbl)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "redis", t.TempDir(), "", nil)
	assert.Error(t, err)
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("p")
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, km.size())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
}
