package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/view"
)

const vetPageSize = 5

type vetForm struct {
	FirstName string `label:"名" validate:"required,max=30"`
	LastName  string `label:"姓" validate:"required,max=30"`
}

type specialtyForm struct {
	Specialty string `label:"专业" validate:"required,max=80"`
}

type dayForm struct {
	Day string `label:"出诊日" validate:"required,max=80"`
}

func vetDetailsURL(vet *domain.Vet) string {
	return fmt.Sprintf("/vets/%d", vet.ID)
}

// saveVet 负责持久化以及之后的缓存失效和通知，返回 false 时错误响应已写出
func (h *Handler) saveVet(w http.ResponseWriter, r *http.Request, vet *domain.Vet, mailType string) bool {
	if err := h.repository.SaveVet(r.Context(), vet); err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			h.errorPage(w, r, http.StatusConflict, "兽医信息已被修改，请刷新后重试")
		default:
			h.serverErrorPage(w, r, err)
		}
		return false
	}

	h.invalidateVets(r.Context())
	h.notifyRoster(mailType, vet)

	return true
}

func (h *Handler) ShowVetList(w http.ResponseWriter, r *http.Request) {
	page := 1
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 1 {
			h.badRequestPage(w, r, "页码无效")
			return
		}
		page = n
	}

	req := domain.PageRequest{Page: page - 1, Size: vetPageSize}
	// 页码大到偏移量会溢出时必然越界，只查询第一页以取得总数
	beyondEnd := req.Page > math.MaxInt/vetPageSize
	if beyondEnd {
		req.Page = 0
	}

	paginated, err := h.repository.FindVetsPage(r.Context(), req)
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}

	vets := paginated.Content
	if beyondEnd {
		vets = []*domain.Vet{}
	}

	h.render(w, r, http.StatusOK, view.VetList, view.VetListData{
		Vets:        vets,
		CurrentPage: page,
		TotalPages:  paginated.TotalPages,
		TotalItems:  paginated.TotalItems,
	})
}

func (h *Handler) GetVetsResource(w http.ResponseWriter, r *http.Request) {
	vets, err := h.allVets(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取兽医列表成功", domain.Vets{VetList: vets})
}

func (h *Handler) ShowVet(w http.ResponseWriter, r *http.Request) {
	vet := r.Context().Value(VetCtx).(*domain.Vet)
	h.render(w, r, http.StatusOK, view.VetDetails, vet)
}

func (h *Handler) InitCreationForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.VetForm, view.VetFormData{IsNew: true})
}

func (h *Handler) ProcessCreationForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.badRequestPage(w, r, "无法解析表单")
		return
	}

	req := vetForm{
		FirstName: strings.TrimSpace(r.PostForm.Get("firstName")),
		LastName:  strings.TrimSpace(r.PostForm.Get("lastName")),
	}
	if err := h.validate.Struct(req); err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, view.VetForm, view.VetFormData{
			IsNew:     true,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Errors:    h.fieldErrors(err),
		})
		return
	}

	vet := &domain.Vet{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Specialties: []domain.Specialty{},
		Days:        []domain.Day{},
	}
	if !h.saveVet(w, r, vet, domain.MailTypeVetCreated) {
		return
	}

	http.Redirect(w, r, vetDetailsURL(vet), http.StatusFound)
}

func (h *Handler) InitEditForm(w http.ResponseWriter, r *http.Request) {
	vet := r.Context().Value(VetCtx).(*domain.Vet)

	h.render(w, r, http.StatusOK, view.VetForm, view.VetFormData{
		VetID:     vet.ID,
		FirstName: vet.FirstName,
		LastName:  vet.LastName,
	})
}

func (h *Handler) ProcessEditForm(w http.ResponseWriter, r *http.Request) {
	vet := r.Context().Value(VetCtx).(*domain.Vet)

	if err := r.ParseForm(); err != nil {
		h.badRequestPage(w, r, "无法解析表单")
		return
	}

	req := vetForm{
		FirstName: strings.TrimSpace(r.PostForm.Get("firstName")),
		LastName:  strings.TrimSpace(r.PostForm.Get("lastName")),
	}
	if err := h.validate.Struct(req); err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, view.VetForm, view.VetFormData{
			VetID:     vet.ID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Errors:    h.fieldErrors(err),
		})
		return
	}

	// 姓名没有变化时不写入
	if vet.Rename(req.FirstName, req.LastName) {
		if !h.saveVet(w, r, vet, domain.MailTypeVetRosterChanged) {
			return
		}
	}

	http.Redirect(w, r, vetDetailsURL(vet), http.StatusFound)
}

func (h *Handler) InitSpecialtyForm(w http.ResponseWriter, r *http.Request) {
	vet := r.Context().Value(VetCtx).(*domain.Vet)
	h.renderSpecialtyForm(w, r, http.StatusOK, vet, "", "")
}

func (h *Handler) renderSpecialtyForm(w http.ResponseWriter, r *http.Request, status int, vet *domain.Vet, selected, errMsg string) {
	specialties, err := h.allSpecialties(r.Context())
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}

	h.render(w, r, status, view.SpecialtyForm, view.SpecialtyFormData{
		Vet:         vet,
		Specialties: specialties,
		Selected:    selected,
		Error:       errMsg,
	})
}

func (h *Handler) ProcessSpecialtyForm(w http.ResponseWriter, r *http.Request) {
	vet := r.Context().Value(VetCtx).(*domain.Vet)

	if err := r.ParseForm(); err != nil {
		h.badRequestPage(w, r, "无法解析表单")
		return
	}

	req := specialtyForm{Specialty: strings.TrimSpace(r.PostForm.Get("specialty"))}
	if err := h.validate.Struct(req); err != nil {
		h.renderSpecialtyForm(w, r, http.StatusUnprocessableEntity, vet, req.Specialty, h.firstError(err))
		return
	}

	specialty, err := h.repository.FindSpecialtyByName(r.Context(), req.Specialty)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.renderSpecialtyForm(w, r, http.StatusUnprocessableEntity, vet, req.Specialty, "专业不存在")
		default:
			h.serverErrorPage(w, r, err)
		}
		return
	}

	// 已拥有该专业时不重复写入
	if vet.AddSpecialty(*specialty) {
		if !h.saveVet(w, r, vet, domain.MailTypeVetRosterChanged) {
			return
		}
	}

	http.Redirect(w, r, vetDetailsURL(vet), http.StatusFound)
}

func (h *Handler) RemoveSpecialty(w http.ResponseWriter, r *http.Request) {
	vet := r.Context().Value(VetCtx).(*domain.Vet)

	specID, err := strconv.ParseInt(chi.URLParam(r, "specId"), 10, 64)
	if err != nil {
		h.badRequestPage(w, r, "专业ID无效")
		return
	}

	specialty, err := h.repository.FindSpecialtyByID(r.Context(), specID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "专业不存在")
		default:
			h.serverErrorPage(w, r, err)
		}
		return
	}

	if vet.RemoveSpecialty(specialty.ID) {
		if !h.saveVet(w, r, vet, domain.MailTypeVetRosterChanged) {
			return
		}
	}

	http.Redirect(w, r, vetDetailsURL(vet), http.StatusFound)
}

func (h *Handler) InitAvailableDayForm(w http.ResponseWriter, r *http.Request) {
	vet := r.Context().Value(VetCtx).(*domain.Vet)
	h.renderDayForm(w, r, http.StatusOK, vet, "", "")
}

func (h *Handler) renderDayForm(w http.ResponseWriter, r *http.Request, status int, vet *domain.Vet, selected, errMsg string) {
	days, err := h.allDays(r.Context())
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}

	h.render(w, r, status, view.AvailableDayForm, view.DayFormData{
		Vet:      vet,
		Days:     days,
		Selected: selected,
		Error:    errMsg,
	})
}

func (h *Handler) ProcessAvailableDayForm(w http.ResponseWriter, r *http.Request) {
	vet := r.Context().Value(VetCtx).(*domain.Vet)

	if err := r.ParseForm(); err != nil {
		h.badRequestPage(w, r, "无法解析表单")
		return
	}

	req := dayForm{Day: strings.TrimSpace(r.PostForm.Get("day"))}
	if err := h.validate.Struct(req); err != nil {
		h.renderDayForm(w, r, http.StatusUnprocessableEntity, vet, req.Day, h.firstError(err))
		return
	}

	day, err := h.repository.FindDayByName(r.Context(), req.Day)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.renderDayForm(w, r, http.StatusUnprocessableEntity, vet, req.Day, "出诊日不存在")
		default:
			h.serverErrorPage(w, r, err)
		}
		return
	}

	if vet.AddDay(*day) {
		if !h.saveVet(w, r, vet, domain.MailTypeVetRosterChanged) {
			return
		}
	}

	http.Redirect(w, r, vetDetailsURL(vet), http.StatusFound)
}

func (h *Handler) RemoveAvailableDay(w http.ResponseWriter, r *http.Request) {
	vet := r.Context().Value(VetCtx).(*domain.Vet)

	dayID, err := strconv.ParseInt(chi.URLParam(r, "dayId"), 10, 64)
	if err != nil {
		h.badRequestPage(w, r, "出诊日ID无效")
		return
	}

	day, err := h.repository.FindDayByID(r.Context(), dayID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "出诊日不存在")
		default:
			h.serverErrorPage(w, r, err)
		}
		return
	}

	if vet.RemoveDay(day.ID) {
		if !h.saveVet(w, r, vet, domain.MailTypeVetRosterChanged) {
			return
		}
	}

	http.Redirect(w, r, vetDetailsURL(vet), http.StatusFound)
}
