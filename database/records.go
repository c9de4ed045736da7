package database

import (
	"context"
	"errors"
	"strings"

	"counseling-records/apperr"
	"counseling-records/models"

	"gorm.io/gorm"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrNoRowsWritten  = errors.New("no rows written")
)

// mutableColumns are rewritten by every update; id and created_at never are.
var mutableColumns = []string{
	"student_name", "grade", "class_num", "consult_date",
	"consult_content", "counselor", "notes",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// RecordRepository reads and writes counseling_records. It holds no cache
// and never retries; every failure is returned as a remote call error.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Insert(ctx context.Context, rec *models.CounselingRecord) (*models.CounselingRecord, error) {
	result := r.db.WithContext(ctx).Create(rec)
	if result.Error != nil {
		return nil, apperr.Remote("records.insert", result.Error, "failed to save the counseling record")
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Remote("records.insert", ErrNoRowsWritten, "failed to save the counseling record")
	}
	return rec, nil
}

// List returns matching records, newest consultation date first. An empty
// filter matches every record.
func (r *RecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.CounselingRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.CounselingRecord{})

	if name := strings.TrimSpace(filter.StudentName); name != "" {
		query = query.Where(`LOWER(student_name) LIKE LOWER(?) ESCAPE '\'`, "%"+likeEscaper.Replace(name)+"%")
	}
	if filter.Grade != nil {
		query = query.Where("grade = ?", *filter.Grade)
	}
	if filter.ClassNum != nil {
		query = query.Where("class_num = ?", *filter.ClassNum)
	}

	records := []models.CounselingRecord{}
	if err := query.Order("consult_date DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, apperr.Remote("records.list", err, "failed to load counseling records")
	}
	return records, nil
}

func (r *RecordRepository) Get(ctx context.Context, id uint) (*models.CounselingRecord, error) {
	var rec models.CounselingRecord
	err := r.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Remote("records.get", ErrRecordNotFound, "counseling record not found")
	}
	if err != nil {
		return nil, apperr.Remote("records.get", err, "failed to load the counseling record")
	}
	return &rec, nil
}

// Update overwrites every mutable field of record id with patch. Concurrent
// updates are not detected; the last one wins.
func (r *RecordRepository) Update(ctx context.Context, id uint, patch models.RecordPatch) (*models.CounselingRecord, error) {
	var values models.CounselingRecord
	patch.Apply(&values)

	result := r.db.WithContext(ctx).
		Model(&models.CounselingRecord{}).
		Where("id = ?", id).
		Select(mutableColumns).
		Updates(&values)
	if result.Error != nil {
		return nil, apperr.Remote("records.update", result.Error, "failed to update the counseling record")
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Remote("records.update", ErrRecordNotFound, "counseling record not found")
	}
	return r.Get(ctx, id)
}

// Delete removes record id permanently and reports whether a row was removed.
func (r *RecordRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.CounselingRecord{}, id)
	if result.Error != nil {
		return false, apperr.Remote("records.delete", result.Error, "failed to delete the counseling record")
	}
	return result.RowsAffected > 0, nil
}
