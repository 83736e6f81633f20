package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
)

const (
	VetList          = "vets/vetList"
	VetDetails       = "vets/vetDetails"
	VetForm          = "vets/createOrUpdateVetForm"
	SpecialtyForm    = "vets/createOrUpdateSpecialtyForm"
	AvailableDayForm = "vets/createOrUpdateAvailableDayForm"
	Error            = "error"
)

//go:embed templates
var files embed.FS

var funcs = template.FuncMap{
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
}

type VetListData struct {
	Vets        []*domain.Vet
	CurrentPage int
	TotalPages  int
	TotalItems  int64
}

type VetFormData struct {
	IsNew     bool
	VetID     int64
	FirstName string
	LastName  string
	Errors    map[string]string // 键为字段名
}

type SpecialtyFormData struct {
	Vet         *domain.Vet
	Specialties []domain.Specialty
	Selected    string
	Error       string
}

type DayFormData struct {
	Vet      *domain.Vet
	Days     []domain.Day
	Selected string
	Error    string
}

type ErrorData struct {
	Status  int
	Message string
}

type Renderer struct {
	pages map[string]*template.Template
}

// New 在启动时解析全部模板，任何语法错误都会在这里暴露
func New() (*Renderer, error) {
	names := []string{VetList, VetDetails, VetForm, SpecialtyForm, AvailableDayForm, Error}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("解析模板 %s 失败: %w", name, err)
		}
		r.pages[name] = t
	}

	return r, nil
}

// Render 先渲染到缓冲区，失败时不会向客户端写出半个页面
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("模板 %s 不存在", name)
	}

	buf := new(bytes.Buffer)
	if err := t.ExecuteTemplate(buf, "layout", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)

	return err
}
