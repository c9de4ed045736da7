package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"counseling-records/auth"
	"counseling-records/middleware"
	"counseling-records/models"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "create", "search", "edit", "delete", "config_error"}

// menuItems is the sidebar, in display order.
var menuItems = []menuItem{
	{Key: "create", Label: "📝 Write record", Path: "/records/new"},
	{Key: "search", Label: "📋 Search records", Path: "/records"},
	{Key: "edit", Label: "✏️ Edit record", Path: "/records/edit"},
	{Key: "delete", Label: "🗑️ Delete record", Path: "/records/delete"},
}

type menuItem struct {
	Key, Label, Path string
}

// page is the data every template receives.
type page struct {
	Title         string
	Active        string
	Menu          []menuItem
	Authenticated bool
	Flashes       []auth.Flash
	Data          interface{}
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"seq": func(from, to int) []int {
			out := make([]int, 0, to-from+1)
			for i := from; i <= to; i++ {
				out = append(out, i)
			}
			return out
		},
		"itoa": func(i int) string { return fmt.Sprint(i) },
	}

	r := &Renderer{pages: make(map[string]*template.Template), logger: logger}
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/record_form.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes page name with status. The template is executed into a
// buffer first so a template error never leaves a half-written page.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, p page) {
	tmpl, ok := rd.pages[name]
	if !ok {
		rd.logger.Error("❌ Unknown template", zap.String("name", name))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	p.Menu = menuItems
	if p.Active == "" {
		p.Active = name
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", p); err != nil {
		rd.logger.Error("❌ Error rendering template", zap.String("name", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// recordView is a record formatted for display.
type recordView struct {
	ID             uint    `json:"id"`
	StudentName    string  `json:"student_name"`
	Grade          int     `json:"grade"`
	ClassNum       int     `json:"class_num"`
	ConsultDate    string  `json:"consult_date"`
	ConsultContent string  `json:"consult_content"`
	Counselor      string  `json:"counselor"`
	Notes          *string `json:"notes"`
	CreatedAt      string  `json:"created_at"`
	Label          string  `json:"-"`
}

func newRecordView(rec models.CounselingRecord) recordView {
	v := recordView{
		ID:             rec.ID,
		StudentName:    rec.StudentName,
		Grade:          rec.Grade,
		ClassNum:       rec.ClassNum,
		ConsultDate:    rec.DateString(),
		ConsultContent: rec.ConsultContent,
		Counselor:      rec.Counselor,
		Notes:          rec.Notes,
		Label:          rec.Label(),
	}
	if !rec.CreatedAt.IsZero() {
		v.CreatedAt = rec.CreatedAt.Format("2006-01-02T15:04:05")
	}
	return v
}

func newRecordViews(recs []models.CounselingRecord) []recordView {
	out := make([]recordView, len(recs))
	for i, rec := range recs {
		out[i] = newRecordView(rec)
	}
	return out
}

// formView is the shared create/edit form.
type formView struct {
	Action      string
	SubmitLabel string
	Form        models.RecordForm
	Error       string
	MinGrade    int
	MaxGrade    int
	MinClass    int
	MaxClass    int
}

func newFormView(action, submit string, form models.RecordForm) formView {
	return formView{
		Action:      action,
		SubmitLabel: submit,
		Form:        form,
		MinGrade:    models.MinGrade,
		MaxGrade:    models.MaxGrade,
		MinClass:    models.MinClassNum,
		MaxClass:    models.MaxClassNum,
	}
}

// pageFor starts a page for the request's session and drains its flashes.
func pageFor(r *http.Request, title string, data interface{}) page {
	p := page{Title: title, Data: data}
	if s := middleware.GetSession(r.Context()); s != nil {
		p.Authenticated = s.Authenticated()
		p.Flashes = s.PopFlashes()
	}
	return p
}

func flash(r *http.Request, kind auth.FlashKind, message string) {
	if s := middleware.GetSession(r.Context()); s != nil {
		s.AddFlash(kind, message)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
