package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/common"
	"github.com/ternarybob/menuscout/internal/models"
	"github.com/ternarybob/menuscout/internal/services/collection"
	"github.com/ternarybob/menuscout/internal/storage/jsonfile"
)

// fakePlacesAPI serves nearby search, details and photo endpoints
func fakePlacesAPI(t *testing.T, searchStatus string, calls *int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		switch r.URL.Path {
		case "/nearbysearch/json":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": searchStatus,
				"results": []map[string]interface{}{
					{"place_id": "p1", "name": "Green Bowl"},
					{"place_id": "p2", "name": "Gone"},
				},
			})
		case "/details/json":
			if r.URL.Query().Get("place_id") != "p1" {
				json.NewEncoder(w).Encode(map[string]interface{}{"status": "NOT_FOUND"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "OK",
				"result": map[string]interface{}{
					"name":   "Green Bowl 綠碗",
					"rating": 4.4,
					"photos": []map[string]interface{}{{"photo_reference": "ref-1", "width": 800, "height": 600}},
				},
			})
		case "/photo":
			w.Write([]byte("jpeg-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestConfig(t *testing.T, baseURL string) *common.Config {
	t.Helper()
	dir := t.TempDir()
	config := common.NewDefaultConfig()
	config.Places.BaseURL = baseURL
	config.Places.EnvFile = ""
	config.Places.InsecureSkipVerify = false
	config.Output.DataDir = filepath.Join(dir, "data")
	config.Output.PhotoDir = filepath.Join(dir, "data", "photos")
	config.Storage.Badger.Path = filepath.Join(dir, "runs")
	return config
}

func TestNew_MissingAPIKeyMakesNoCalls(t *testing.T) {
	var calls int64
	server := fakePlacesAPI(t, "OK", &calls)
	t.Setenv("GOOGLE_API_KEY", "")

	config := newTestConfig(t, server.URL)
	_, err := New(config, arbor.NewLogger())

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingAPIKey)
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls))
}

func TestRunCollection_Completed(t *testing.T) {
	var calls int64
	server := fakePlacesAPI(t, "OK", &calls)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	config := newTestConfig(t, server.URL)
	application, err := New(config, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	run, err := application.RunCollection(context.Background(), collection.CollectRequest{Latitude: 25.033, Longitude: 121.5654, NumRestaurants: 2})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Requested)
	assert.Equal(t, 1, run.Collected)
	assert.Equal(t, 1, run.SkippedPlaces)
	assert.Equal(t, 1, run.PhotosDownloaded)
	assert.Equal(t, filepath.Join(config.Output.DataDir, config.Output.Filename), run.OutputPath)

	records, err := jsonfile.LoadFromJSON(run.OutputPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Green Bowl 綠碗", records[0].Name)
	require.Len(t, records[0].Photos, 1)
	_, statErr := os.Stat(records[0].Photos[0].FilePath)
	assert.NoError(t, statErr)

	runs, err := application.RunStorage.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestRunCollection_SearchFailedWritesNothing(t *testing.T) {
	var calls int64
	server := fakePlacesAPI(t, "REQUEST_DENIED", &calls)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	config := newTestConfig(t, server.URL)
	application, err := New(config, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	run, err := application.RunCollection(context.Background(), collection.CollectRequest{Latitude: 1, Longitude: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, collection.ErrSearchFailed)

	assert.Equal(t, models.RunStatusSearchFailed, run.Status)
	assert.NotEmpty(t, run.Error)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "only the search is called")

	_, statErr := os.Stat(filepath.Join(config.Output.DataDir, config.Output.Filename))
	assert.True(t, os.IsNotExist(statErr))

	stored, err := application.RunStorage.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSearchFailed, stored.Status)
}

func TestRunCollection_HistoryDisabled(t *testing.T) {
	var calls int64
	server := fakePlacesAPI(t, "OK", &calls)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	config := newTestConfig(t, server.URL)
	config.Storage.Badger.Enabled = false
	application, err := New(config, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	run, err := application.RunCollection(context.Background(), collection.CollectRequest{NumRestaurants: 1})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)

	runs, err := application.RunStorage.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestTriggeredRunIsRecorded(t *testing.T) {
	var calls int64
	server := fakePlacesAPI(t, "OK", &calls)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	config := newTestConfig(t, server.URL)
	application, err := New(config, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	rec := httptest.NewRecorder()
	application.RunHandler.RunsHandler(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Stop waits for the triggered run
	application.Scheduler.Stop()

	runs, err := application.RunStorage.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, config.Collection.NumRestaurants, runs[0].Requested)
}
