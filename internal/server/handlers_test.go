package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"historical-places/internal/common/database"
	apperrors "historical-places/internal/common/errors"
	"historical-places/internal/common/logger"
	"historical-places/internal/models"
	"historical-places/internal/pipeline"
	"historical-places/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	result *models.ItineraryResult
	err    error
	models []models.ModelInfo
	calls  int
}

func (f *fakeProvider) Generate(_ context.Context, _, _ string) (*models.ItineraryResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &models.ItineraryResult{Places: []models.Place{
		{
			Name:        "Woolsthorpe, England",
			Years:       "1642-1661",
			Description: "Born at Woolsthorpe Manor.",
			Lat:         52.8086,
			Lng:         -0.6278,
		},
	}}, nil
}

func (f *fakeProvider) ListModels(_ context.Context) ([]models.ModelInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.models, nil
}

func setupServer(t *testing.T, fake *fakeProvider) (http.Handler, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db := database.NewRedisFromClient(rdb)
	log := logger.NewNoOpLogger()

	cache := store.NewCacheStore(db, 7*24*time.Hour, log)
	stats := store.NewStatsStore(db, log)
	fallback := pipeline.NewFallbackController(
		fake,
		"gemini-2.0-flash",
		[]string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-flash-latest"},
		3,
		log,
	)
	service := pipeline.NewService(cache, stats, fallback, log)
	handler := NewHandler(service, fake, db, log)

	return NewRouter(handler, log, nil), mr
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlePlaces_Success(t *testing.T) {
	fake := &fakeProvider{}
	router, _ := setupServer(t, fake)

	rec := doJSON(t, router, http.MethodPost, "/api/places", map[string]string{
		"name": "Isaac Newton",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FetchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "gemini-2.0-flash", resp.Provider)
	assert.False(t, resp.Cached)
	assert.Len(t, resp.Places, 1)
}

func TestHandlePlaces_SecondRequestServedFromCache(t *testing.T) {
	fake := &fakeProvider{}
	router, _ := setupServer(t, fake)

	body := map[string]string{"name": "Isaac Newton"}
	rec := doJSON(t, router, http.MethodPost, "/api/places", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/places", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FetchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
	assert.Equal(t, 1, fake.calls)
}

func TestHandlePlaces_MissingName(t *testing.T) {
	router, _ := setupServer(t, &fakeProvider{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty name", map[string]string{"name": ""}},
		{"whitespace name", map[string]string{"name": "   "}},
		{"no body", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/places", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestHandlePlaces_RateLimitMapsTo429(t *testing.T) {
	fake := &fakeProvider{err: apperrors.NewRateLimitedError("gemini-2.0-flash", nil)}
	router, _ := setupServer(t, fake)

	rec := doJSON(t, router, http.MethodPost, "/api/places", map[string]string{
		"name": "Isaac Newton",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 3, fake.calls, "every fallback attempt is made before giving up")
}

func TestHandlePlaces_MalformedResponseMapsTo502(t *testing.T) {
	fake := &fakeProvider{err: apperrors.NewMalformedResponseError("gemini-2.0-flash", nil)}
	router, _ := setupServer(t, fake)

	rec := doJSON(t, router, http.MethodPost, "/api/places", map[string]string{
		"name": "Isaac Newton",
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1, fake.calls)
}

func TestHandlePlaces_NotFoundIs200WithErrorBody(t *testing.T) {
	fake := &fakeProvider{result: &models.ItineraryResult{
		NotFound: "Could not find information about this person",
	}}
	router, mr := setupServer(t, fake)

	rec := doJSON(t, router, http.MethodPost, "/api/places", map[string]string{
		"name": "Nobody Anyoneknows",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Could not find information about this person", resp["error"])
	assert.False(t, mr.Exists("cache:nobody anyoneknows:gemini-2.0-flash"))
}

func TestHandleStats_ListsAndAnnotates(t *testing.T) {
	fake := &fakeProvider{}
	router, _ := setupServer(t, fake)

	rec := doJSON(t, router, http.MethodPost, "/api/places", map[string]string{
		"name": "Isaac Newton",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stats []struct {
			Name          string `json:"name"`
			RequestCount  int    `json:"requestCount"`
			HasCachedData bool   `json:"hasCachedData"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Stats, 1)
	assert.Equal(t, "Isaac Newton", resp.Stats[0].Name)
	assert.Equal(t, 1, resp.Stats[0].RequestCount)
	assert.True(t, resp.Stats[0].HasCachedData)
}

func TestHandleStats_Empty(t *testing.T) {
	router, _ := setupServer(t, &fakeProvider{})

	rec := doJSON(t, router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stats":[]}`, rec.Body.String())
}

func TestHandlePurge_RemovesFigure(t *testing.T) {
	fake := &fakeProvider{}
	router, mr := setupServer(t, fake)

	rec := doJSON(t, router, http.MethodPost, "/api/places", map[string]string{
		"name": "Isaac Newton",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, mr.Exists("stats:isaac newton"))

	rec = doJSON(t, router, http.MethodDelete, "/api/stats", map[string]string{
		"normalizedName": "isaac newton",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.False(t, mr.Exists("stats:isaac newton"))
	assert.False(t, mr.Exists("cache:isaac newton:gemini-2.0-flash"))
}

func TestHandlePurge_MissingName(t *testing.T) {
	router, _ := setupServer(t, &fakeProvider{})

	rec := doJSON(t, router, http.MethodDelete, "/api/stats", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleModels(t *testing.T) {
	fake := &fakeProvider{models: []models.ModelInfo{
		{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash"},
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash"},
	}}
	router, _ := setupServer(t, fake)

	rec := doJSON(t, router, http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp modelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Models, 2)
	assert.Equal(t, "gemini-2.0-flash", resp.Models[0].ID)
}

func TestRequestIDHeader(t *testing.T) {
	router, _ := setupServer(t, &fakeProvider{})

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "proxy-assigned")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, "proxy-assigned", rec2.Header().Get("X-Request-ID"))
}

func TestHandleHealth(t *testing.T) {
	router, mr := setupServer(t, &fakeProvider{})

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
