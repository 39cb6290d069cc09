package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/interfaces"
	"github.com/ternarybob/menuscout/internal/models"
	"github.com/ternarybob/menuscout/internal/services/places"
	"github.com/ternarybob/menuscout/internal/storage/jsonfile"
)

// mockPlacesService implements interfaces.PlacesService for testing
type mockPlacesService struct {
	searchFunc func(ctx context.Context, req places.NearbySearchRequest) (*places.NearbySearchResponse, error)
}

func (m *mockPlacesService) SearchNearby(ctx context.Context, req places.NearbySearchRequest) (*places.NearbySearchResponse, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, req)
	}
	return &places.NearbySearchResponse{Status: places.StatusZeroResults}, nil
}

func (m *mockPlacesService) GetDetails(ctx context.Context, placeID string) (*places.DetailsResponse, error) {
	return nil, errors.New("not used")
}

func (m *mockPlacesService) DownloadPhoto(ctx context.Context, ref string, maxWidth int, photoDir, name string) (*models.PhotoAsset, error) {
	return nil, errors.New("not used")
}

// mockRunStorage implements interfaces.RunStorage for testing
type mockRunStorage struct {
	runs      []*models.CollectionRun
	lastLimit int
	err       error
}

func (m *mockRunStorage) SaveRun(ctx context.Context, run *models.CollectionRun) error { return nil }

func (m *mockRunStorage) GetRun(ctx context.Context, id string) (*models.CollectionRun, error) {
	for _, run := range m.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, interfaces.ErrRunNotFound
}

func (m *mockRunStorage) ListRuns(ctx context.Context, limit int) ([]*models.CollectionRun, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.runs, nil
}

func (m *mockRunStorage) Close() error { return nil }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandler_RejectsPost(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNearbyHandler_MapsResults(t *testing.T) {
	var got places.NearbySearchRequest
	mock := &mockPlacesService{
		searchFunc: func(ctx context.Context, req places.NearbySearchRequest) (*places.NearbySearchResponse, error) {
			got = req
			return &places.NearbySearchResponse{
				Status: places.StatusOK,
				Results: []places.PlaceResult{
					{PlaceID: "p1", Name: "健康餐盒", Vicinity: "信義路五段7號", Rating: 4.6},
					{PlaceID: "p2", Name: "Salad & Co", Vicinity: "Songren Rd"},
				},
			}, nil
		},
	}
	h := NewRestaurantHandler(mock, "", arbor.NewLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/maps/restaurants/nearby?lat=25.033&lng=121.5654&radius=800&type=cafe&keyword=salad", nil)
	h.NearbyHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25.033, got.Latitude)
	assert.Equal(t, 121.5654, got.Longitude)
	assert.Equal(t, 800, got.Radius)
	assert.Equal(t, "cafe", got.Type)
	assert.Equal(t, "salad", got.Keyword)

	var body []models.NearbyRestaurant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, models.NearbyRestaurant{Name: "健康餐盒", Address: "信義路五段7號", Rating: 4.6}, body[0])
	assert.Equal(t, "Salad & Co", body[1].Name)
	assert.Contains(t, rec.Body.String(), "Salad & Co")
}

func TestNearbyHandler_ZeroResultsIsEmptyArray(t *testing.T) {
	h := NewRestaurantHandler(&mockPlacesService{}, "", arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.NearbyHandler(rec, httptest.NewRequest(http.MethodGet, "/maps/restaurants/nearby?lat=1&lng=2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestNearbyHandler_ValidatesCoordinates(t *testing.T) {
	h := NewRestaurantHandler(&mockPlacesService{}, "", arbor.NewLogger())

	for _, query := range []string{"", "?lat=1", "?lng=1", "?lat=abc&lng=1", "?lat=91&lng=1", "?lat=1&lng=-181", "?lat=1&lng=1&radius=-5"} {
		rec := httptest.NewRecorder()
		h.NearbyHandler(rec, httptest.NewRequest(http.MethodGet, "/maps/restaurants/nearby"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", query)
	}
}

func TestNearbyHandler_UpstreamFailures(t *testing.T) {
	cases := map[string]func(ctx context.Context, req places.NearbySearchRequest) (*places.NearbySearchResponse, error){
		"status": func(ctx context.Context, req places.NearbySearchRequest) (*places.NearbySearchResponse, error) {
			return &places.NearbySearchResponse{Status: "REQUEST_DENIED"}, nil
		},
		"transport": func(ctx context.Context, req places.NearbySearchRequest) (*places.NearbySearchResponse, error) {
			return nil, errors.New("connection refused")
		},
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewRestaurantHandler(&mockPlacesService{searchFunc: fn}, "", arbor.NewLogger())
			rec := httptest.NewRecorder()
			h.NearbyHandler(rec, httptest.NewRequest(http.MethodGet, "/maps/restaurants/nearby?lat=1&lng=2", nil))
			assert.Equal(t, http.StatusBadGateway, rec.Code)
		})
	}
}

func TestListHandler_ServesCollectedData(t *testing.T) {
	dir := t.TempDir()
	path, err := jsonfile.SaveToJSON([]models.RestaurantRecord{{PlaceID: "p1", Name: "綠色沙拉"}}, dir, "out.json")
	require.NoError(t, err)

	h := NewRestaurantHandler(&mockPlacesService{}, path, arbor.NewLogger())
	rec := httptest.NewRecorder()
	h.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/restaurants", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.RestaurantRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "綠色沙拉", records[0].Name)
}

func TestListHandler_MissingFile(t *testing.T) {
	h := NewRestaurantHandler(&mockPlacesService{}, filepath.Join(t.TempDir(), "absent.json"), arbor.NewLogger())
	rec := httptest.NewRecorder()
	h.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/restaurants", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunHandler_List(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &mockRunStorage{runs: []*models.CollectionRun{
		{ID: "run_2", StartedAt: now.Add(time.Hour), Status: models.RunStatusCompleted},
		{ID: "run_1", StartedAt: now, Status: models.RunStatusSearchFailed},
	}}
	h := NewRunHandler(storage, nil, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, storage.lastLimit)

	var runs []models.CollectionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "run_2", runs[0].ID)
	assert.Equal(t, models.RunStatusSearchFailed, runs[1].Status)
}

func TestRunHandler_ListDefaultsAndErrors(t *testing.T) {
	storage := &mockRunStorage{}
	h := NewRunHandler(storage, nil, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, storage.lastLimit)

	rec = httptest.NewRecorder()
	h.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	storage.err = errors.New("db closed")
	rec = httptest.NewRecorder()
	h.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRunHandler_Get(t *testing.T) {
	storage := &mockRunStorage{runs: []*models.CollectionRun{{ID: "run_1", Collected: 3}}}
	h := NewRunHandler(storage, nil, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.GetHandler(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var run models.CollectionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 3, run.Collected)

	rec = httptest.NewRecorder()
	h.GetHandler(rec, httptest.NewRequest(http.MethodGet, "/api/runs/absent", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// stubTrigger accepts runs until busy is set
type stubTrigger struct {
	busy  bool
	calls int
}

func (s *stubTrigger) RunNow() bool {
	s.calls++
	return !s.busy
}

func TestRunHandler_Trigger(t *testing.T) {
	trigger := &stubTrigger{}
	h := NewRunHandler(&mockRunStorage{}, trigger, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.RunsHandler(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"accepted"}`, rec.Body.String())

	trigger.busy = true
	rec = httptest.NewRecorder()
	h.RunsHandler(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 2, trigger.calls)
}

func TestRunHandler_TriggerUnavailable(t *testing.T) {
	h := NewRunHandler(&mockRunStorage{}, nil, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.RunsHandler(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunHandler_RunsDispatch(t *testing.T) {
	storage := &mockRunStorage{}
	h := NewRunHandler(storage, &stubTrigger{}, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.RunsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, storage.lastLimit)

	rec = httptest.NewRecorder()
	h.RunsHandler(rec, httptest.NewRequest(http.MethodDelete, "/api/runs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
