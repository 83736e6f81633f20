package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/repository/mocks"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Redis.OperationTimeout = 1
	cfg.Redis.CacheExpiration = 60
	cfg.RabbitMQ.Queue = "email_queue"
	cfg.RabbitMQ.PublishTimeout = 1
	return cfg
}

func newTestHandler(t *testing.T, repo repository.VetRepository) *Handler {
	t.Helper()

	h, err := NewHandler(testConfig(), repo, nil, nil)
	require.NoError(t, err)
	h.RegisterRoutes()

	return h
}

func serve(h *Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)
	return rec
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []domain.MailMessage
	keys     []string
	err      error
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	var m domain.MailMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		return err
	}
	p.messages = append(p.messages, m)
	p.keys = append(p.keys, key)
	return nil
}

func carter() *domain.Vet {
	return &domain.Vet{ID: 1, FirstName: "James", LastName: "Carter", Specialties: []domain.Specialty{}, Days: []domain.Day{}, Version: 1}
}

func TestShowVetList(t *testing.T) {
	repo := new(mocks.MockVetRepository)
	h := newTestHandler(t, repo)

	vets := []*domain.Vet{carter()}
	repo.On("FindVetsPage", mock.Anything, domain.PageRequest{Page: 1, Size: 5}).
		Return(domain.NewPage(vets, domain.PageRequest{Page: 1, Size: 5}, 6), nil)

	rec := serve(h, http.MethodGet, "/vets.html?page=2", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "James Carter")
	assert.Contains(t, rec.Body.String(), "共 6 位兽医")
	repo.AssertExpectations(t)
}

func TestShowVetList_DefaultsToFirstPage(t *testing.T) {
	repo := new(mocks.MockVetRepository)
	h := newTestHandler(t, repo)

	repo.On("FindVetsPage", mock.Anything, domain.PageRequest{Page: 0, Size: 5}).
		Return(domain.NewPage([]*domain.Vet{}, domain.PageRequest{Page: 0, Size: 5}, 0), nil)

	rec := serve(h, http.MethodGet, "/vets.html", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestShowVetList_InvalidPage(t *testing.T) {
	for _, page := range []string{"0", "-1", "abc"} {
		t.Run(page, func(t *testing.T) {
			repo := new(mocks.MockVetRepository)
			h := newTestHandler(t, repo)

			rec := serve(h, http.MethodGet, "/vets.html?page="+page, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			repo.AssertNotCalled(t, "FindVetsPage", mock.Anything, mock.Anything)
		})
	}
}

func TestShowVetList_PageOffsetOverflow(t *testing.T) {
	repo := new(mocks.MockVetRepository)
	h := newTestHandler(t, repo)

	repo.On("FindVetsPage", mock.Anything, domain.PageRequest{Page: 0, Size: 5}).
		Return(domain.NewPage([]*domain.Vet{carter()}, domain.PageRequest{Page: 0, Size: 5}, 1), nil)

	rec := serve(h, http.MethodGet, "/vets.html?page=2000000000000000001", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "James Carter")
	assert.Contains(t, rec.Body.String(), "共 1 位兽医")
	repo.AssertExpectations(t)
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	sets []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	}
	c.sets = append(c.sets, key)
	return redis.NewStatusResult("OK", nil)
}

func (c *fakeCache) Incr(ctx context.Context, key string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, _ := strconv.ParseInt(c.data[key], 10, 64)
	n++
	c.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func decodeVetList(t *testing.T, rec *httptest.ResponseRecorder) []*domain.Vet {
	t.Helper()

	var resp struct {
		Data domain.Vets `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.VetList
}

func TestVetsCache(t *testing.T) {
	t.Run("hit", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		cache := newFakeCache()
		h.redisClient = cache

		payload, err := json.Marshal([]*domain.Vet{carter()})
		require.NoError(t, err)
		cache.data[vetsCacheKeyPrefix+"0"] = string(payload)

		rec := serve(h, http.MethodGet, "/vets", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		vets := decodeVetList(t, rec)
		require.Len(t, vets, 1)
		assert.Equal(t, "Carter", vets[0].LastName)
		repo.AssertNotCalled(t, "FindAllVets", mock.Anything)
		assert.Empty(t, cache.sets)
	})

	t.Run("miss then set", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		cache := newFakeCache()
		h.redisClient = cache

		repo.On("FindAllVets", mock.Anything).Return([]*domain.Vet{carter()}, nil)

		rec := serve(h, http.MethodGet, "/vets", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = serve(h, http.MethodGet, "/vets", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Len(t, decodeVetList(t, rec), 1)
		assert.Equal(t, []string{vetsCacheKeyPrefix + "0"}, cache.sets)
		repo.AssertNumberOfCalls(t, "FindAllVets", 1)
	})

	t.Run("corrupt entry falls back to repository", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		cache := newFakeCache()
		h.redisClient = cache
		cache.data[vetsCacheKeyPrefix+"0"] = "{"

		repo.On("FindAllVets", mock.Anything).Return([]*domain.Vet{carter()}, nil)

		rec := serve(h, http.MethodGet, "/vets", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeVetList(t, rec), 1)
		repo.AssertNumberOfCalls(t, "FindAllVets", 1)
	})

	t.Run("invalidated on save", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		cache := newFakeCache()
		h.redisClient = cache

		repo.On("FindAllVets", mock.Anything).Return([]*domain.Vet{carter()}, nil)
		repo.On("SaveVet", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Vet).ID = 2
		}).Return(nil).Once()

		serve(h, http.MethodGet, "/vets", nil)
		rec := serve(h, http.MethodPost, "/vets/new", url.Values{"firstName": {"Helen"}, "lastName": {"Leary"}})
		require.Equal(t, http.StatusFound, rec.Code)
		serve(h, http.MethodGet, "/vets", nil)

		assert.Equal(t, "1", cache.data[vetsGenerationKey])
		repo.AssertNumberOfCalls(t, "FindAllVets", 2)
	})

	t.Run("save during load does not leave stale entry", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		cache := newFakeCache()
		h.redisClient = cache

		// 第一次加载期间发生一次写入
		repo.On("FindAllVets", mock.Anything).Run(func(args mock.Arguments) {
			h.invalidateVets(args.Get(0).(context.Context))
		}).Return([]*domain.Vet{carter()}, nil).Once()
		repo.On("FindAllVets", mock.Anything).Return([]*domain.Vet{carter(), {ID: 2, FirstName: "Helen", LastName: "Leary"}}, nil)

		serve(h, http.MethodGet, "/vets", nil)
		rec := serve(h, http.MethodGet, "/vets", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeVetList(t, rec), 2)
		repo.AssertNumberOfCalls(t, "FindAllVets", 2)
	})
}

func TestGetVetsResource(t *testing.T) {
	repo := new(mocks.MockVetRepository)
	h := newTestHandler(t, repo)

	repo.On("FindAllVets", mock.Anything).Return([]*domain.Vet{carter()}, nil)

	rec := serve(h, http.MethodGet, "/vets", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Success bool        `json:"success"`
		Data    domain.Vets `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.VetList, 1)
	assert.Equal(t, "James", resp.Data.VetList[0].FirstName)
}

func TestGetVetsResource_RepositoryError(t *testing.T) {
	repo := new(mocks.MockVetRepository)
	h := newTestHandler(t, repo)

	repo.On("FindAllVets", mock.Anything).Return(nil, errors.New("connection reset"))

	rec := serve(h, http.MethodGet, "/vets", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetVetsResource_CacheUnavailable(t *testing.T) {
	repo := new(mocks.MockVetRepository)
	h := newTestHandler(t, repo)
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	h.redisClient = rdb

	repo.On("FindAllVets", mock.Anything).Return([]*domain.Vet{carter()}, nil)

	rec := serve(h, http.MethodGet, "/vets", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertNumberOfCalls(t, "FindAllVets", 1)
}

func TestShowVet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)

		rec := serve(h, http.MethodGet, "/vets/1", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "James Carter")
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(42)).Return(nil, sql.ErrNoRows)

		rec := serve(h, http.MethodGet, "/vets/42", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "兽医不存在")
	})

	t.Run("invalid id", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)

		rec := serve(h, http.MethodGet, "/vets/abc", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		repo.AssertNotCalled(t, "FindVetByID", mock.Anything, mock.Anything)
	})
}

func TestProcessCreationForm(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)

		repo.On("SaveVet", mock.Anything, mock.MatchedBy(func(v *domain.Vet) bool {
			return v.IsNew() && v.FirstName == "Helen" && v.LastName == "Leary"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Vet).ID = 9
		}).Return(nil).Once()

		rec := serve(h, http.MethodPost, "/vets/new", url.Values{"firstName": {"Helen"}, "lastName": {" Leary "}})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/vets/9", rec.Header().Get("Location"))
		repo.AssertExpectations(t)
	})

	t.Run("missing field", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)

		rec := serve(h, http.MethodPost, "/vets/new", url.Values{"firstName": {"Helen"}, "lastName": {"   "}})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
		assert.Contains(t, rec.Body.String(), `id="add-vet-form"`)
		assert.Contains(t, rec.Body.String(), `value="Helen"`)
		assert.Contains(t, rec.Body.String(), "必填")
		repo.AssertNotCalled(t, "SaveVet", mock.Anything, mock.Anything)
	})
}

func TestInitForms(t *testing.T) {
	repo := new(mocks.MockVetRepository)
	h := newTestHandler(t, repo)

	repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
	repo.On("FindSpecialties", mock.Anything).Return([]domain.Specialty{{ID: 3, Name: "dentistry"}, {ID: 1, Name: "radiology"}}, nil)
	repo.On("FindDays", mock.Anything).Return([]domain.Day{{ID: 1, Name: "Monday"}}, nil)

	rec := serve(h, http.MethodGet, "/vets/new", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "新增兽医")

	rec = serve(h, http.MethodGet, "/vets/1/edit", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Carter"`)

	rec = serve(h, http.MethodGet, "/vets/1/specialty/new", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="dentistry"`)

	rec = serve(h, http.MethodGet, "/vets/1/available-day/new", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="Monday"`)
}

func TestProcessEditForm(t *testing.T) {
	t.Run("unchanged name is not persisted", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)

		rec := serve(h, http.MethodPost, "/vets/1/edit", url.Values{"firstName": {"James"}, "lastName": {"Carter"}})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/vets/1", rec.Header().Get("Location"))
		repo.AssertNotCalled(t, "SaveVet", mock.Anything, mock.Anything)
	})

	t.Run("changed name is persisted once", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("SaveVet", mock.Anything, mock.MatchedBy(func(v *domain.Vet) bool {
			return v.ID == 1 && v.FirstName == "Jim" && v.LastName == "Carter"
		})).Return(nil)

		rec := serve(h, http.MethodPost, "/vets/1/edit", url.Values{"firstName": {"Jim"}, "lastName": {"Carter"}})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/vets/1", rec.Header().Get("Location"))
		repo.AssertNumberOfCalls(t, "SaveVet", 1)
	})

	t.Run("invalid form", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)

		rec := serve(h, http.MethodPost, "/vets/1/edit", url.Values{"firstName": {""}, "lastName": {"Carter"}})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "编辑兽医")
		repo.AssertNotCalled(t, "SaveVet", mock.Anything, mock.Anything)
	})

	t.Run("stale version", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("SaveVet", mock.Anything, mock.Anything).Return(repository.ErrEditConflict)

		rec := serve(h, http.MethodPost, "/vets/1/edit", url.Values{"firstName": {"Jim"}, "lastName": {"Carter"}})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestProcessSpecialtyForm(t *testing.T) {
	radiology := &domain.Specialty{ID: 1, Name: "radiology"}

	t.Run("adds specialty", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("FindSpecialtyByName", mock.Anything, "radiology").Return(radiology, nil)
		repo.On("SaveVet", mock.Anything, mock.MatchedBy(func(v *domain.Vet) bool {
			return v.NrOfSpecialties() == 1 && v.HasSpecialty(1)
		})).Return(nil).Once()

		rec := serve(h, http.MethodPost, "/vets/1/specialty/new", url.Values{"specialty": {"radiology"}})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/vets/1", rec.Header().Get("Location"))
		repo.AssertExpectations(t)
	})

	t.Run("already associated", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		vet := carter()
		vet.AddSpecialty(*radiology)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(vet, nil)
		repo.On("FindSpecialtyByName", mock.Anything, "radiology").Return(radiology, nil)

		rec := serve(h, http.MethodPost, "/vets/1/specialty/new", url.Values{"specialty": {"radiology"}})

		assert.Equal(t, http.StatusFound, rec.Code)
		repo.AssertNotCalled(t, "SaveVet", mock.Anything, mock.Anything)
	})

	t.Run("unknown name", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("FindSpecialtyByName", mock.Anything, "cardiology").Return(nil, sql.ErrNoRows)
		repo.On("FindSpecialties", mock.Anything).Return([]domain.Specialty{*radiology}, nil)

		rec := serve(h, http.MethodPost, "/vets/1/specialty/new", url.Values{"specialty": {"cardiology"}})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "专业不存在")
		repo.AssertNotCalled(t, "SaveVet", mock.Anything, mock.Anything)
	})

	t.Run("missing name", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("FindSpecialties", mock.Anything).Return([]domain.Specialty{*radiology}, nil)

		rec := serve(h, http.MethodPost, "/vets/1/specialty/new", url.Values{})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		repo.AssertNotCalled(t, "FindSpecialtyByName", mock.Anything, mock.Anything)
	})
}

func TestRemoveSpecialty(t *testing.T) {
	surgery := &domain.Specialty{ID: 2, Name: "surgery"}

	t.Run("not associated", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("FindSpecialtyByID", mock.Anything, int64(2)).Return(surgery, nil)

		rec := serve(h, http.MethodPost, "/vets/1/specialty/2/delete", nil)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/vets/1", rec.Header().Get("Location"))
		repo.AssertNotCalled(t, "SaveVet", mock.Anything, mock.Anything)
	})

	t.Run("associated", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		vet := carter()
		vet.AddSpecialty(*surgery)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(vet, nil)
		repo.On("FindSpecialtyByID", mock.Anything, int64(2)).Return(surgery, nil)
		repo.On("SaveVet", mock.Anything, mock.MatchedBy(func(v *domain.Vet) bool {
			return v.NrOfSpecialties() == 0
		})).Return(nil).Once()

		rec := serve(h, http.MethodPost, "/vets/1/specialty/2/delete", nil)

		assert.Equal(t, http.StatusFound, rec.Code)
		repo.AssertExpectations(t)
	})

	t.Run("unknown specialty", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("FindSpecialtyByID", mock.Anything, int64(99)).Return(nil, sql.ErrNoRows)

		rec := serve(h, http.MethodPost, "/vets/1/specialty/99/delete", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)

		rec := serve(h, http.MethodPost, "/vets/1/specialty/x/delete", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAvailableDays(t *testing.T) {
	monday := &domain.Day{ID: 1, Name: "Monday"}

	t.Run("add", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("FindDayByName", mock.Anything, "Monday").Return(monday, nil)
		repo.On("SaveVet", mock.Anything, mock.MatchedBy(func(v *domain.Vet) bool { return v.HasDay(1) })).Return(nil).Once()

		rec := serve(h, http.MethodPost, "/vets/1/available-day/new", url.Values{"day": {"Monday"}})

		assert.Equal(t, http.StatusFound, rec.Code)
		repo.AssertExpectations(t)
	})

	t.Run("unknown name", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("FindDayByName", mock.Anything, "Someday").Return(nil, sql.ErrNoRows)
		repo.On("FindDays", mock.Anything).Return([]domain.Day{*monday}, nil)

		rec := serve(h, http.MethodPost, "/vets/1/available-day/new", url.Values{"day": {"Someday"}})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "出诊日不存在")
	})

	t.Run("remove", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		vet := carter()
		vet.AddDay(*monday)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(vet, nil)
		repo.On("FindDayByID", mock.Anything, int64(1)).Return(monday, nil)
		repo.On("SaveVet", mock.Anything, mock.MatchedBy(func(v *domain.Vet) bool { return len(v.Days) == 0 })).Return(nil).Once()

		rec := serve(h, http.MethodPost, "/vets/1/available-day/1/delete", nil)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/vets/1", rec.Header().Get("Location"))
		repo.AssertExpectations(t)
	})

	t.Run("remove unknown day", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("FindDayByID", mock.Anything, int64(8)).Return(nil, sql.ErrNoRows)

		rec := serve(h, http.MethodPost, "/vets/1/available-day/8/delete", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestNotifications(t *testing.T) {
	t.Run("published after save", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		h.config.Email.NotifyTo = "front-desk@clinic.example"
		pub := &fakePublisher{}
		h.mailChannel = pub

		repo.On("SaveVet", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Vet).ID = 3
		}).Return(nil)

		rec := serve(h, http.MethodPost, "/vets/new", url.Values{"firstName": {"Linda"}, "lastName": {"Douglas"}})

		require.Equal(t, http.StatusFound, rec.Code)
		require.Len(t, pub.messages, 1)
		assert.Equal(t, domain.MailTypeVetCreated, pub.messages[0].Type)
		assert.Equal(t, "front-desk@clinic.example", pub.messages[0].To)
		assert.Equal(t, "email_queue", pub.keys[0])
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		h.config.Email.NotifyTo = "front-desk@clinic.example"
		h.mailChannel = &fakePublisher{err: errors.New("channel closed")}

		repo.On("FindVetByID", mock.Anything, int64(1)).Return(carter(), nil)
		repo.On("SaveVet", mock.Anything, mock.Anything).Return(nil)

		rec := serve(h, http.MethodPost, "/vets/1/edit", url.Values{"firstName": {"Jim"}, "lastName": {"Carter"}})

		assert.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("skipped without recipient", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		pub := &fakePublisher{}
		h.mailChannel = pub

		repo.On("SaveVet", mock.Anything, mock.Anything).Return(nil)

		rec := serve(h, http.MethodPost, "/vets/new", url.Values{"firstName": {"Linda"}, "lastName": {"Douglas"}})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Empty(t, pub.messages)
	})
}

func TestMiddlewares(t *testing.T) {
	t.Run("request id", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetsPage", mock.Anything, mock.Anything).
			Return(domain.NewPage([]*domain.Vet{}, domain.PageRequest{Size: 5}, 0), nil)

		rec := serve(h, http.MethodGet, "/vets.html", nil)
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

		req := httptest.NewRequest(http.MethodGet, "/vets.html", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec = httptest.NewRecorder()
		h.Mux.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})

	t.Run("recoverer", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetsPage", mock.Anything, mock.Anything).Panic("boom")

		rec := serve(h, http.MethodGet, "/vets.html", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		repo := new(mocks.MockVetRepository)
		h := newTestHandler(t, repo)
		repo.On("FindVetsPage", mock.Anything, mock.Anything).
			Return(domain.NewPage([]*domain.Vet{}, domain.PageRequest{Size: 5}, 0), nil)

		serve(h, http.MethodGet, "/vets.html", nil)
		rec := serve(h, http.MethodGet, "/metrics", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/vets.html",status="200"} 1`)
		assert.NotContains(t, rec.Body.String(), `path="/metrics"`)
	})

	t.Run("unknown route", func(t *testing.T) {
		h := newTestHandler(t, new(mocks.MockVetRepository))

		rec := serve(h, http.MethodGet, "/owners", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "页面不存在")
	})
}
