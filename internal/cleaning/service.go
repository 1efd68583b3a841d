package cleaning

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/store"
)

// Service applies operations to committed snapshots. Each Apply holds the
// project lock for the whole load, apply, resynthesize and commit sequence.
type Service struct {
	store  store.Store
	locks  *store.KeyedMutex
	synth  *dataset.Synthesizer
	logger *zap.Logger
}

// NewService wires a cleaning service. A nil locks or synth gets a fresh default.
func NewService(st store.Store, locks *store.KeyedMutex, synth *dataset.Synthesizer, logger *zap.Logger) *Service {
	if locks == nil {
		locks = store.NewKeyedMutex()
	}
	if synth == nil {
		synth = &dataset.Synthesizer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, locks: locks, synth: synth, logger: logger}
}

// Apply runs op against the current snapshot of project and commits the
// result with freshly synthesized metadata. On any error the committed state
// is left as it was.
func (s *Service) Apply(ctx context.Context, project string, op Operation) (*dataset.Metadata, error) {
	unlock := s.locks.Lock(project)
	defer unlock()

	start := time.Now()
	t, err := s.store.LoadSnapshot(ctx, project)
	if err != nil {
		return nil, err
	}
	next, err := op.Apply(t)
	if err != nil {
		s.logger.Debug("cleaning operation rejected", zap.String("project", project), zap.String("op", op.Name()), zap.Error(err))
		return nil, err
	}
	md, err := s.synth.Synthesize(ctx, next)
	if err != nil {
		return nil, err
	}
	if err := s.store.Commit(ctx, project, next, md); err != nil {
		return nil, err
	}
	s.logger.Info("snapshot committed",
		zap.String("project", project),
		zap.String("op", Describe(op)),
		zap.Int("rows", md.Rows),
		zap.Int("cols", md.Cols),
		zap.Duration("elapsed", time.Since(start)))
	return md, nil
}

// DetectOutliers reads the committed snapshot without modifying it.
func (s *Service) DetectOutliers(ctx context.Context, project, column string) (*OutlierReport, error) {
	t, err := s.store.LoadSnapshot(ctx, project)
	if err != nil {
		return nil, err
	}
	return DetectOutliers(t, column)
}
