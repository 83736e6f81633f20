package handler

import (
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/view"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  repository.VetRepository
	translator  ut.Translator
	views       *view.Renderer
	metrics     *Metrics
	registry    *prometheus.Registry
	mailChannel mailPublisher
	redisClient cacheStore

	Mux *chi.Mux
}

// NewHandler 中 mailCh 和 rdb 均可为 nil，此时分别不发送通知、不使用缓存
func NewHandler(cfg *config.Config, repo repository.VetRepository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	// 错误信息中使用中文字段名
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if label := field.Tag.Get("label"); label != "" {
			return label
		}
		return field.Name
	})

	views, err := view.New()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		views:       views,
		metrics:     metrics,
		registry:    registry,

		Mux: chi.NewRouter(),
	}
	if mailCh != nil {
		h.mailChannel = mailCh
	}
	if rdb != nil {
		h.redisClient = rdb
	}

	return h, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(h.instrument)

	h.Mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.notFound(w, r, "页面不存在")
	})

	h.Mux.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))

	h.Mux.Get("/vets.html", h.ShowVetList)

	h.Mux.Route("/vets", func(r chi.Router) {
		r.Get("/", h.GetVetsResource) // 供程序调用的完整列表
		r.Get("/new", h.InitCreationForm)
		r.Post("/new", h.ProcessCreationForm)
		r.Route("/{vetId}", func(r chi.Router) {
			r.Use(h.vetInfo)
			r.Get("/", h.ShowVet)
			r.Get("/edit", h.InitEditForm)
			r.Post("/edit", h.ProcessEditForm)
			r.Route("/specialty", func(r chi.Router) {
				r.Get("/new", h.InitSpecialtyForm)
				r.Post("/new", h.ProcessSpecialtyForm)
				r.Post("/{specId}/delete", h.RemoveSpecialty)
			})
			r.Route("/available-day", func(r chi.Router) {
				r.Get("/new", h.InitAvailableDayForm)
				r.Post("/new", h.ProcessAvailableDayForm)
				r.Post("/{dayId}/delete", h.RemoveAvailableDay)
			})
		})
	})
}
