package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"counseling-records/apperr"
	"counseling-records/auth"
	"counseling-records/database"
	"counseling-records/middleware"
	"counseling-records/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	selectAll         = "all"
	missingTableHint  = "The counseling_records table may not exist yet. Run `counseling-records migrate` to create it."
	confirmDeleteFlag = "yes"
)

// RecordHandler serves the four record views: create, search, edit, delete.
type RecordHandler struct {
	store    RecordStore
	improver TextImprover
	render   *Renderer
	logger   *zap.Logger
	now      func() time.Time
}

func NewRecordHandler(store RecordStore, improver TextImprover, render *Renderer, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		store:    store,
		improver: improver,
		render:   render,
		logger:   logger.Named("records"),
		now:      time.Now,
	}
}

type createView struct {
	AIEnabled  bool
	Draft      string
	Suggestion string
	Form       formView
}

type searchView struct {
	Name    string
	Grade   string
	Class   string
	Records []recordView
	Count   int
	Error   string
	Hint    string
}

// selectView backs the edit and delete views: a record picker plus the
// selected record as a form or as JSON.
type selectView struct {
	Records    []recordView
	SelectedID uint
	Form       formView
	JSON       string
	Error      string
	FormOnly   bool
}

// NewRecord shows the blank create form, prefilled with an accepted
// suggestion when there is one.
func (h *RecordHandler) NewRecord(w http.ResponseWriter, r *http.Request) {
	form := models.NewRecordForm(h.now())
	if s := middleware.GetSession(r.Context()); s != nil {
		if text, ok := s.TakeAccepted(); ok {
			form.ConsultContent = text
		}
	}
	h.renderCreate(w, r, http.StatusOK, form, "")
}

func (h *RecordHandler) renderCreate(w http.ResponseWriter, r *http.Request, status int, form models.RecordForm, errMsg string) {
	view := createView{
		AIEnabled: h.improver.Enabled(),
		Form:      newFormView("/records", "💾 Save", form),
	}
	view.Form.Error = errMsg
	if s := middleware.GetSession(r.Context()); s != nil {
		view.Draft = s.Draft()
		view.Suggestion = s.Suggestion()
	}
	h.render.Render(w, status, "create", pageFor(r, "Write record", view))
}

// Improve sends the draft to the language model and keeps the result as a
// pending suggestion.
func (h *RecordHandler) Improve(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r, h.logger) {
		return
	}
	s := middleware.GetSession(r.Context())
	draft := r.PostFormValue("draft")
	if s != nil {
		s.SetDraft(draft)
	}

	switch {
	case !h.improver.Enabled():
		flash(r, auth.FlashWarning, "⚠️ AI improvement is not configured.")
	case strings.TrimSpace(draft) == "":
		flash(r, auth.FlashWarning, "⚠️ Enter the consultation content to improve first.")
	default:
		improved, err := h.improver.Improve(r.Context(), draft)
		if err != nil {
			flash(r, auth.FlashError, "❌ "+apperr.UserMessage(err))
			break
		}
		if s != nil {
			s.OfferSuggestion(improved)
		}
	}
	redirect(w, r, "/records/new")
}

func (h *RecordHandler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	if s := middleware.GetSession(r.Context()); s != nil && s.AcceptSuggestion() {
		flash(r, auth.FlashSuccess, "✅ The improved text was copied into the form.")
	}
	redirect(w, r, "/records/new")
}

func (h *RecordHandler) DiscardSuggestion(w http.ResponseWriter, r *http.Request) {
	if s := middleware.GetSession(r.Context()); s != nil {
		s.DiscardSuggestion()
	}
	redirect(w, r, "/records/new")
}

// Create validates the submitted form and inserts the record. The store is
// not called unless the form is valid.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r, h.logger) {
		return
	}
	form := models.ParseRecordForm(r.PostForm)

	rec, err := form.Record(h.now())
	if err != nil {
		h.renderCreate(w, r, http.StatusUnprocessableEntity, form, apperr.UserMessage(err))
		return
	}

	saved, err := h.store.Insert(r.Context(), rec)
	if err != nil {
		h.logger.Error("❌ Error saving record", zap.Error(err))
		h.renderCreate(w, r, http.StatusBadGateway, form, apperr.UserMessage(err))
		return
	}

	if s := middleware.GetSession(r.Context()); s != nil {
		s.SetDraft("")
		s.DiscardSuggestion()
	}
	h.logger.Info("✅ Record created", zap.Uint("id", saved.ID))
	flash(r, auth.FlashSuccess, fmt.Sprintf("✅ Counseling record for %s was saved.", saved.StudentName))
	redirect(w, r, "/records/new")
}

// Search lists records matching the name, grade and class filters. "all" or
// an empty value leaves a filter unconstrained.
func (h *RecordHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := searchView{
		Name:  strings.TrimSpace(q.Get("name")),
		Grade: selection(q.Get("grade")),
		Class: selection(q.Get("class")),
	}

	grade, gradeErr := parseSelection(view.Grade, "Grade", models.MinGrade, models.MaxGrade)
	classNum, classErr := parseSelection(view.Class, "Class", models.MinClassNum, models.MaxClassNum)
	if err := errors.Join(gradeErr, classErr); err != nil {
		view.Error = err.Error()
		h.render.Render(w, http.StatusBadRequest, "search", pageFor(r, "Search records", view))
		return
	}

	records, err := h.store.List(r.Context(), models.RecordFilter{
		StudentName: view.Name,
		Grade:       grade,
		ClassNum:    classNum,
	})
	if err != nil {
		h.logger.Error("❌ Error searching records", zap.Error(err))
		view.Error = apperr.UserMessage(err)
		view.Hint = missingTableHint
		h.render.Render(w, http.StatusBadGateway, "search", pageFor(r, "Search records", view))
		return
	}

	view.Records = newRecordViews(records)
	view.Count = len(records)
	h.render.Render(w, http.StatusOK, "search", pageFor(r, "Search records", view))
}

// EditList shows the record picker with the edit form for the selected
// record, the first one by default.
func (h *RecordHandler) EditList(w http.ResponseWriter, r *http.Request) {
	view, status := h.loadSelection(r)
	h.render.Render(w, status, "edit", pageFor(r, "Edit record", view))
}

// Update rewrites every mutable field of the record in the path. A rejected
// form is shown again on its own, without reloading the list.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if !parseForm(w, r, h.logger) {
		return
	}
	form := models.ParseRecordForm(r.PostForm)

	patch, err := form.Patch()
	if err != nil {
		h.renderEditForm(w, r, http.StatusUnprocessableEntity, id, form, apperr.UserMessage(err))
		return
	}

	updated, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.logger.Error("❌ Error updating record", zap.Uint("id", id), zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, database.ErrRecordNotFound) {
			status = http.StatusNotFound
		}
		h.renderEditForm(w, r, status, id, form, apperr.UserMessage(err))
		return
	}

	h.logger.Info("✅ Record updated", zap.Uint("id", updated.ID))
	flash(r, auth.FlashSuccess, "✅ Counseling record was updated.")
	redirect(w, r, fmt.Sprintf("/records/edit?id=%d", updated.ID))
}

func (h *RecordHandler) renderEditForm(w http.ResponseWriter, r *http.Request, status int, id uint, form models.RecordForm, errMsg string) {
	view := selectView{
		SelectedID: id,
		FormOnly:   true,
		Form:       newFormView(editAction(id), "💾 Save changes", form),
	}
	view.Form.Error = errMsg
	h.render.Render(w, status, "edit", pageFor(r, "Edit record", view))
}

// DeleteList shows the record picker with the selected record as JSON.
func (h *RecordHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	view, status := h.loadSelection(r)
	h.render.Render(w, status, "delete", pageFor(r, "Delete record", view))
}

// Delete removes the record in the path once the user has confirmed.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if !parseForm(w, r, h.logger) {
		return
	}

	if r.PostFormValue("confirm") != confirmDeleteFlag {
		flash(r, auth.FlashWarning, "⚠️ Tick the confirmation box to delete the record.")
		redirect(w, r, fmt.Sprintf("/records/delete?id=%d", id))
		return
	}

	removed, err := h.store.Delete(r.Context(), id)
	switch {
	case err != nil:
		h.logger.Error("❌ Error deleting record", zap.Uint("id", id), zap.Error(err))
		flash(r, auth.FlashError, "❌ "+apperr.UserMessage(err))
		redirect(w, r, fmt.Sprintf("/records/delete?id=%d", id))
		return
	case removed:
		h.logger.Info("🗑️ Record deleted", zap.Uint("id", id))
		flash(r, auth.FlashSuccess, "✅ Counseling record was deleted.")
	default:
		flash(r, auth.FlashWarning, "⚠️ Nothing was deleted; the record may already be gone.")
	}
	redirect(w, r, "/records/delete")
}

// loadSelection lists every record and picks the one named by ?id=, falling
// back to the first.
func (h *RecordHandler) loadSelection(r *http.Request) (selectView, int) {
	var view selectView

	records, err := h.store.List(r.Context(), models.RecordFilter{})
	if err != nil {
		h.logger.Error("❌ Error loading records", zap.Error(err))
		view.Error = apperr.UserMessage(err)
		return view, http.StatusBadGateway
	}
	if len(records) == 0 {
		return view, http.StatusOK
	}

	selected := records[0]
	if id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64); err == nil {
		for _, rec := range records {
			if uint64(rec.ID) == id {
				selected = rec
				break
			}
		}
	}

	sv := newRecordView(selected)
	body, err := json.MarshalIndent(sv, "", "  ")
	if err != nil {
		h.logger.Error("❌ Error encoding record", zap.Uint("id", selected.ID), zap.Error(err))
	}

	view.Records = newRecordViews(records)
	view.SelectedID = selected.ID
	view.Form = newFormView(editAction(selected.ID), "💾 Save changes", models.FormFromRecord(selected))
	view.JSON = string(body)
	return view, http.StatusOK
}

func editAction(id uint) string {
	return fmt.Sprintf("/records/%d/edit", id)
}

func parseForm(w http.ResponseWriter, r *http.Request, logger *zap.Logger) bool {
	if err := r.ParseForm(); err != nil {
		logger.Warn("❌ Error parsing form", zap.Error(err))
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func selection(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return selectAll
	}
	return raw
}

// parseSelection turns a select value into an optional filter.
func parseSelection(raw, label string, min, max int) (*int, error) {
	if raw == selectAll {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return nil, apperr.Validation(fmt.Sprintf("%s must be %q or between %d and %d.", label, selectAll, min, max))
	}
	return &n, nil
}
