package database

import (
	"fmt"

	"counseling-records/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates the counseling_records table. Existing rows are
// kept.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("🔄 Starting database migration...")

	if err := db.AutoMigrate(&models.CounselingRecord{}); err != nil {
		return fmt.Errorf("error migrating counseling_records: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return err
	}

	logger.Info("✅ Database migration completed", zap.String("table", models.CounselingRecord{}.TableName()))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_counseling_records_student_name ON counseling_records(student_name)",
		"CREATE INDEX IF NOT EXISTS idx_counseling_records_grade_class ON counseling_records(grade, class_num)",
		"CREATE INDEX IF NOT EXISTS idx_counseling_records_consult_date ON counseling_records(consult_date)",
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("error creating index: %w", err)
		}
	}
	return nil
}
