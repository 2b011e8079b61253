package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/civicpulse-backend/internal/domain"
)

// models lists every table the service owns, parents before children.
var models = []interface{}{
	&types.User{},
	&types.UserToken{},
	&types.Complaint{},
}

// complaintIndexes back the two list orderings: admin triage view and the
// citizen's own history.
var complaintIndexes = []struct{ name, columns string }{
	{"idx_complaint_priority_created", "priority DESC, created_at DESC"},
	{"idx_complaint_citizen_created", "citizen_id, created_at DESC"},
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, idx := range complaintIndexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON complaint (%s)", idx.name, idx.columns)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create %s: %w", idx.name, err)
		}
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
