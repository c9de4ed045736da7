package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	MinGrade    = 1
	MaxGrade    = 6
	MinClassNum = 1
	MaxClassNum = 20

	DateLayout = "2006-01-02"
)

// CounselingRecord is one row of counseling_records. Rows are removed for
// good on delete, so there is no gorm.DeletedAt here.
type CounselingRecord struct {
	ID             uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	StudentName    string         `json:"student_name" gorm:"not null;size:100"`
	Grade          int            `json:"grade" gorm:"not null"`
	ClassNum       int            `json:"class_num" gorm:"not null"`
	ConsultDate    datatypes.Date `json:"consult_date" gorm:"not null"`
	ConsultContent string         `json:"consult_content" gorm:"type:text;not null"`
	Counselor      string         `json:"counselor" gorm:"not null;size:100"`
	Notes          *string        `json:"notes"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime:false"`
}

func (CounselingRecord) TableName() string {
	return "counseling_records"
}

// DateString formats the consultation date as an ISO-8601 date.
func (r CounselingRecord) DateString() string {
	return time.Time(r.ConsultDate).Format(DateLayout)
}

// Label is how a record is shown in selection menus.
func (r CounselingRecord) Label() string {
	return fmt.Sprintf("%s - grade %d class %d (%s)", r.StudentName, r.Grade, r.ClassNum, r.DateString())
}

// RecordPatch is the full set of mutable fields written by an update.
type RecordPatch struct {
	StudentName    string
	Grade          int
	ClassNum       int
	ConsultDate    datatypes.Date
	ConsultContent string
	Counselor      string
	Notes          *string
}

// Apply copies the patch onto rec, leaving ID and CreatedAt alone.
func (p RecordPatch) Apply(rec *CounselingRecord) {
	rec.StudentName = p.StudentName
	rec.Grade = p.Grade
	rec.ClassNum = p.ClassNum
	rec.ConsultDate = p.ConsultDate
	rec.ConsultContent = p.ConsultContent
	rec.Counselor = p.Counselor
	rec.Notes = p.Notes
}

// RecordFilter narrows a listing. Zero values do not constrain the result.
type RecordFilter struct {
	StudentName string
	Grade       *int
	ClassNum    *int
}

// NewDate truncates t to a calendar date in UTC.
func NewDate(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses an ISO-8601 date such as 2024-05-01.
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return NewDate(t), nil
}
