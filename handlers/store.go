package handlers

import (
	"context"

	"counseling-records/models"
)

// RecordStore is the persistence the record views need. It is implemented by
// database.RecordRepository.
type RecordStore interface {
	Insert(ctx context.Context, rec *models.CounselingRecord) (*models.CounselingRecord, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.CounselingRecord, error)
	Get(ctx context.Context, id uint) (*models.CounselingRecord, error)
	Update(ctx context.Context, id uint, patch models.RecordPatch) (*models.CounselingRecord, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

// TextImprover is implemented by textai.Client.
type TextImprover interface {
	Enabled() bool
	Improve(ctx context.Context, text string) (string, error)
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}
