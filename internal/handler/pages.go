package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/view"
)

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.views.Render(w, status, name, data); err != nil {
		h.serverErrorPage(w, r, err)
	}
}

func (h *Handler) errorPage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if err := h.views.Render(w, status, view.Error, view.ErrorData{Status: status, Message: msg}); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, msg, status)
	}
}

func (h *Handler) badRequestPage(w http.ResponseWriter, r *http.Request, msg string) {
	h.errorPage(w, r, http.StatusBadRequest, msg)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	h.errorPage(w, r, http.StatusNotFound, msg)
}

func (h *Handler) serverErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.errorPage(w, r, http.StatusInternalServerError, "服务器内部错误")
}

// fieldErrors 将校验错误按结构体字段名整理成可直接显示的中文信息
func (h *Handler) fieldErrors(err error) map[string]string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"": err.Error()}
	}

	errs := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		if _, exists := errs[fe.StructField()]; !exists {
			errs[fe.StructField()] = fe.Translate(h.translator)
		}
	}
	return errs
}

// firstError 只取第一条校验错误
func (h *Handler) firstError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	return validationErrors[0].Translate(h.translator)
}
