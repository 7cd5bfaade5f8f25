package infrastructure

import (
	"fmt"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/polymorphisma/userhub/internal/config"
	"github.com/polymorphisma/userhub/internal/migrations"
)

// RunMigrations applies all pending schema revisions through the
// service's own database connection. Any failure aborts startup.
func RunMigrations(db *gorm.DB, cfg *config.Config, l *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	runner, err := migrations.NewWithDriver(migrations.Embedded(), cfg.DB.Name, driver, l)
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}
	defer func() {
		// Releases the dedicated connection back to the pool.
		if cerr := runner.Close(); cerr != nil {
			l.Warn("failed to close migration runner", zap.Error(cerr))
		}
	}()

	if err := runner.Up(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
