package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotofacil_sync/internal/domain"
	"lotofacil_sync/internal/service"
	"lotofacil_sync/testdata/utils"
)

const testSecret = "test-secret"

type fakeSyncer struct {
	bundle    *domain.LocalBundle
	bundleErr error
	state     *domain.SyncState
	updated   bool
	syncErr   error
	syncCalls int
}

func (f *fakeSyncer) SyncIfNeeded(context.Context) (bool, error) {
	f.syncCalls++
	return f.updated, f.syncErr
}

func (f *fakeSyncer) ReadLocalBundle() (*domain.LocalBundle, error) {
	return f.bundle, f.bundleErr
}

func (f *fakeSyncer) LastSync(context.Context) (*domain.SyncState, error) {
	if f.state == nil {
		return &domain.SyncState{BundleID: service.BundleID}, nil
	}
	return f.state, nil
}

type fakeDraws struct {
	draws []domain.LocalDraw
	limit int
}

func (f *fakeDraws) Recent(_ context.Context, limit int) ([]domain.LocalDraw, error) {
	f.limit = limit
	if len(f.draws) > limit {
		return f.draws[:limit], nil
	}
	return f.draws, nil
}

func testBundle() *domain.LocalBundle {
	return &domain.LocalBundle{
		Metadata: domain.RemoteMetadata{
			Version:  utils.Ptr(int64(5)),
			Checksum: utils.Ptr("abc"),
			RowCount: 3,
		},
		Draws: []domain.LocalDraw{
			{ID: 1, Date: "2003-09-29", Numbers: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
			{ID: 3, Date: "2003-10-13", Numbers: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 25}},
			{ID: 2, Date: "2003-10-06", Numbers: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 24, 25}},
		},
		RawStats: map[string]any{
			"frequencia_absoluta": map[string]any{"1": 10, "2": 9, "25": 30},
		},
	}
}

func newTestServer(syncer *fakeSyncer, draws DrawReader) http.Handler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRouter(NewHandler(syncer, draws, nil, logger), RouterConfig{JWTSecret: testSecret}, logger)
}

func do(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeSyncer{}, nil), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestBundle(t *testing.T) {
	now := time.Now().UTC()
	syncer := &fakeSyncer{
		bundle: testBundle(),
		state:  &domain.SyncState{BundleID: service.BundleID, LastDownloadedAt: &now, TotalDownloads: 2},
	}

	rec := do(t, newTestServer(syncer, nil), http.MethodGet, "/api/v1/bundle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[bundleResponse](t, rec)
	assert.Equal(t, 3, resp.Draws)
	assert.Equal(t, "abc", *resp.Metadata.Checksum)
	require.NotNil(t, resp.LastSync)
	assert.Equal(t, int64(2), resp.LastSync.TotalDownloads)
}

func TestBundle_NoLocalBundle(t *testing.T) {
	rec := do(t, newTestServer(&fakeSyncer{}, nil), http.MethodGet, "/api/v1/bundle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBundle_ReadError(t *testing.T) {
	syncer := &fakeSyncer{bundleErr: errors.New("bundle is not a JSON object")}

	rec := do(t, newTestServer(syncer, nil), http.MethodGet, "/api/v1/bundle", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDraws_FromStore(t *testing.T) {
	store := &fakeDraws{draws: testBundle().Draws}

	rec := do(t, newTestServer(&fakeSyncer{}, store), http.MethodGet, "/api/v1/draws?limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxDrawsLimit, store.limit)

	rec = do(t, newTestServer(&fakeSyncer{}, store), http.MethodGet, "/api/v1/draws", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultDrawsLimit, store.limit)
}

func TestDraws_FromBundle(t *testing.T) {
	rec := do(t, newTestServer(&fakeSyncer{bundle: testBundle()}, nil), http.MethodGet, "/api/v1/draws?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	draws := decode[[]domain.LocalDraw](t, rec)
	require.Len(t, draws, 2)
	assert.Equal(t, 3, draws[0].ID)
	assert.Equal(t, 2, draws[1].ID)
}

func TestDraws_InvalidLimit(t *testing.T) {
	h := newTestServer(&fakeSyncer{bundle: testBundle()}, nil)

	for _, q := range []string{"0", "-3", "ten"} {
		rec := do(t, h, http.MethodGet, "/api/v1/draws?limit="+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestStats(t *testing.T) {
	rec := do(t, newTestServer(&fakeSyncer{bundle: testBundle()}, nil), http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[statsResponse](t, rec)
	assert.Equal(t, 3, resp.Summary.SampleSize)
	assert.Equal(t, []int{25, 1, 2}, resp.SuggestedBet)
}

func TestSuggestion(t *testing.T) {
	h := newTestServer(&fakeSyncer{bundle: testBundle()}, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/suggestion?limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{1, 2, 3}, decode[suggestionResponse](t, rec).Numbers)

	rec = do(t, h, http.MethodGet, "/api/v1/suggestion", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[suggestionResponse](t, rec).Numbers, 15)

	for _, q := range []string{"0", "26"} {
		rec = do(t, h, http.MethodGet, "/api/v1/suggestion?limit="+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestSync(t *testing.T) {
	token, err := GenerateToken("ops", testSecret, time.Hour)
	require.NoError(t, err)

	syncer := &fakeSyncer{updated: true}
	h := newTestServer(syncer, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/sync", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, syncer.syncCalls)

	rec = do(t, h, http.MethodPost, "/api/v1/sync", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[syncResponse](t, rec).Updated)
	assert.Equal(t, 1, syncer.syncCalls)
}

func TestSync_Errors(t *testing.T) {
	token, err := GenerateToken("ops", testSecret, time.Hour)
	require.NoError(t, err)

	remote := fmt.Errorf("download bundle: %w: %w", service.ErrRemoteUnavailable, errors.New("unexpected status 503"))

	rec := do(t, newTestServer(&fakeSyncer{syncErr: remote}, nil), http.MethodPost, "/api/v1/sync", token)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, newTestServer(&fakeSyncer{syncErr: errors.New("apply bundle: db down")}, nil), http.MethodPost, "/api/v1/sync", token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSync_RateLimited(t *testing.T) {
	token, err := GenerateToken("ops", testSecret, time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	syncer := &fakeSyncer{}
	h := NewRouter(NewHandler(syncer, nil, nil, logger), RouterConfig{JWTSecret: testSecret, SyncRate: 0.001, SyncBurst: 1}, logger)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/sync", token).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/api/v1/sync", token).Code)
	assert.Equal(t, 1, syncer.syncCalls)
}
