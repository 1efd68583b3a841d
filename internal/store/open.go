package store

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/KaramelBytes/vizprep-cli/internal/utils"
)

// Open builds the backend named by driver.
func Open(ctx context.Context, driver, projectsDir, sqlitePath string, logger *zap.Logger) (Store, error) {
	switch driver {
	case "", DriverFS:
		return NewFSStore(projectsDir, logger)
	case DriverSQLite:
		if err := utils.EnsureProjectDir(filepath.Dir(sqlitePath)); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		return OpenSQLite(ctx, sqlitePath, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q (want %s or %s)", driver, DriverFS, DriverSQLite)
	}
}
