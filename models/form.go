package models

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"counseling-records/apperr"

	"github.com/go-playground/validator/v10"
)

// RequiredFieldsMessage is shown when any field marked with * is blank.
const RequiredFieldsMessage = "Please fill in all required fields (*)."

// RecordForm holds the values of the create and edit forms as submitted.
type RecordForm struct {
	StudentName    string `validate:"required"`
	Grade          int    `validate:"min=1,max=6"`
	ClassNum       int    `validate:"min=1,max=20"`
	ConsultDate    string `validate:"required,datetime=2006-01-02"`
	ConsultContent string `validate:"required"`
	Counselor      string `validate:"required"`
	Notes          string
}

var validate = validator.New()

var fieldLabels = map[string]string{
	"StudentName":    "student name",
	"Grade":          "grade",
	"ClassNum":       "class",
	"ConsultDate":    "consultation date",
	"ConsultContent": "consultation content",
	"Counselor":      "counselor",
}

// NewRecordForm returns the blank create form: grade 1, class 1, today.
func NewRecordForm(now time.Time) RecordForm {
	return RecordForm{
		Grade:       MinGrade,
		ClassNum:    MinClassNum,
		ConsultDate: now.Format(DateLayout),
	}
}

// ParseRecordForm reads a submitted form. Text is trimmed; numbers that do
// not parse are left at zero so validation rejects them.
func ParseRecordForm(values url.Values) RecordForm {
	grade, _ := strconv.Atoi(strings.TrimSpace(values.Get("grade")))
	classNum, _ := strconv.Atoi(strings.TrimSpace(values.Get("class_num")))

	return RecordForm{
		StudentName:    strings.TrimSpace(values.Get("student_name")),
		Grade:          grade,
		ClassNum:       classNum,
		ConsultDate:    strings.TrimSpace(values.Get("consult_date")),
		ConsultContent: strings.TrimSpace(values.Get("consult_content")),
		Counselor:      strings.TrimSpace(values.Get("counselor")),
		Notes:          strings.TrimSpace(values.Get("notes")),
	}
}

// FormFromRecord prefills the edit form.
func FormFromRecord(rec CounselingRecord) RecordForm {
	form := RecordForm{
		StudentName:    rec.StudentName,
		Grade:          rec.Grade,
		ClassNum:       rec.ClassNum,
		ConsultDate:    rec.DateString(),
		ConsultContent: rec.ConsultContent,
		Counselor:      rec.Counselor,
	}
	if rec.Notes != nil {
		form.Notes = *rec.Notes
	}
	return form
}

// Validate returns a single validation error that combines every problem.
func (f RecordForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation(err.Error())
	}

	var missing, problems []string
	for _, fe := range fieldErrs {
		label := fieldLabels[fe.Field()]
		switch {
		case fe.Tag() == "required":
			missing = append(missing, label)
		case fe.Field() == "Grade":
			problems = append(problems, fmt.Sprintf("Grade must be between %d and %d.", MinGrade, MaxGrade))
		case fe.Field() == "ClassNum":
			problems = append(problems, fmt.Sprintf("Class must be between %d and %d.", MinClassNum, MaxClassNum))
		case fe.Tag() == "datetime":
			problems = append(problems, "Consultation date must look like 2024-05-01.")
		default:
			problems = append(problems, fmt.Sprintf("Invalid %s.", label))
		}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("%s Missing: %s.", RequiredFieldsMessage, strings.Join(missing, ", ")))
	}
	parts = append(parts, problems...)
	return apperr.Validation(strings.Join(parts, " "))
}

// Patch converts a validated form into the full set of mutable fields.
func (f RecordForm) Patch() (RecordPatch, error) {
	if err := f.Validate(); err != nil {
		return RecordPatch{}, err
	}
	date, err := ParseDate(f.ConsultDate)
	if err != nil {
		return RecordPatch{}, apperr.Validation("Consultation date must look like 2024-05-01.")
	}

	patch := RecordPatch{
		StudentName:    f.StudentName,
		Grade:          f.Grade,
		ClassNum:       f.ClassNum,
		ConsultDate:    date,
		ConsultContent: f.ConsultContent,
		Counselor:      f.Counselor,
	}
	if f.Notes != "" {
		notes := f.Notes
		patch.Notes = &notes
	}
	return patch, nil
}

// Record builds a new record stamped with createdAt.
func (f RecordForm) Record(createdAt time.Time) (*CounselingRecord, error) {
	patch, err := f.Patch()
	if err != nil {
		return nil, err
	}
	rec := &CounselingRecord{CreatedAt: createdAt}
	patch.Apply(rec)
	return rec, nil
}
