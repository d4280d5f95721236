package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/adsb-proxy/internal/adsb"
	"github.com/yegors/adsb-proxy/internal/config"
	"github.com/yegors/adsb-proxy/pkg/logger"
)

type stubResolver struct {
	res *adsb.Resolution
	err error
}

func (s stubResolver) Resolve(ctx context.Context) (*adsb.Resolution, error) {
	return s.res, s.err
}

func newTestRouter(resolver Resolver) http.Handler {
	return NewRouter(resolver, config.Default(), logger.Nop()).Routes()
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetAircraftRemote(t *testing.T) {
	snapshot := &adsb.Snapshot{
		Now:      1700000000.5,
		Aircraft: []adsb.Aircraft{{
			Hex:     adsb.ValueOf("abc123"),
			Flight:  "UAL1",
			AltBaro: adsb.GroundAltitude(),
			MLAT:    *adsb.ValueOf([]string{}),
			TISB:    *adsb.ValueOf([]string{}),
		}},
	}
	router := newTestRouter(stubResolver{res: &adsb.Resolution{Source: "adsb.lol", Data: snapshot, AircraftCount: 1}})

	w := serve(t, router, http.MethodGet, "/data/aircraft.json")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "adsb.lol", w.Header().Get(SourceHeader))
	assert.JSONEq(t, `{"now":1700000000.5,"messages":0,"aircraft":[
		{"hex":"abc123","flight":"UAL1","alt_baro":"ground","mlat":[],"tisb":[],"messages":0,"seen":0}
	]}`, w.Body.String())
}

func TestGetAircraftLocalFile(t *testing.T) {
	raw := `{"now":1700000000.1,"messages":99,"aircraft":[{"hex":"4ca7b5","alt_baro":"ground","r_dst":2.5}]}`
	path := filepath.Join(t.TempDir(), "aircraft.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	client := adsb.NewClient(path, "http://127.0.0.1:1/unused", time.Second, logger.Nop())
	router := newTestRouter(adsb.NewResolver(client, true, "adsb.lol", logger.Nop()))

	w := serve(t, router, http.MethodGet, "/data/aircraft.json?_=1700000000")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, adsb.SourceLocal, w.Header().Get(SourceHeader))
	assert.Equal(t, raw, w.Body.String())
}

func TestGetAircraftUnavailable(t *testing.T) {
	router := newTestRouter(stubResolver{err: adsb.ErrNoDataSources})

	before := float64(time.Now().Unix())
	w := serve(t, router, http.MethodGet, "/data/aircraft.json")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get(SourceHeader))

	var body struct {
		Error    string            `json:"error"`
		Aircraft []json.RawMessage `json:"aircraft"`
		Now      float64           `json:"now"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "No data sources available", body.Error)
	assert.NotNil(t, body.Aircraft)
	assert.Empty(t, body.Aircraft)
	assert.GreaterOrEqual(t, body.Now, before)
}

func TestGetAircraftMissingEverything(t *testing.T) {
	client := adsb.NewClient(filepath.Join(t.TempDir(), "absent.json"), "", time.Second, logger.Nop())
	router := newTestRouter(adsb.NewResolver(client, false, "adsb.lol", logger.Nop()))

	w := serve(t, router, http.MethodGet, "/data/aircraft.json")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"aircraft":[]`)
}

func TestHealth(t *testing.T) {
	for _, resolver := range []Resolver{
		stubResolver{err: errors.New("down")},
		stubResolver{res: &adsb.Resolution{Source: "local", Data: &adsb.Snapshot{}}},
	} {
		w := serve(t, newTestRouter(resolver), http.MethodGet, "/health")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	}
}

func TestNotFound(t *testing.T) {
	router := newTestRouter(stubResolver{err: adsb.ErrNoDataSources})

	for _, path := range []string{"/", "/data", "/data/aircraft.json/", "/data/receiver.json", "/healthz"} {
		w := serve(t, router, http.MethodGet, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "Not Found", w.Body.String(), path)
	}
}

func TestPreflight(t *testing.T) {
	router := newTestRouter(stubResolver{err: adsb.ErrNoDataSources})

	req := httptest.NewRequest(http.MethodOptions, "/data/aircraft.json", nil)
	req.Header.Set("Origin", "http://map.local")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, SourceHeader, w.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORSRestrictedOrigins(t *testing.T) {
	mw := NewMiddleware(logger.Nop())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := mw.CORS([]string{"http://allowed.example"})(next)

	req := httptest.NewRequest(http.MethodGet, "/data/aircraft.json", nil)
	req.Header.Set("Origin", "http://allowed.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "http://allowed.example", w.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://other.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetAircraftOtherErrorText(t *testing.T) {
	router := newTestRouter(stubResolver{err: errors.New("resolver closed")})

	w := serve(t, router, http.MethodGet, "/data/aircraft.json")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"resolver closed"`)
}

func TestCORSPassesPreflightOn(t *testing.T) {
	mw := NewMiddleware(logger.Nop())
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/data/aircraft.json", nil)
	w := httptest.NewRecorder()
	mw.CORS(nil)(next).ServeHTTP(w, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestPreflightUnknownPath(t *testing.T) {
	router := newTestRouter(stubResolver{err: adsb.ErrNoDataSources})

	w := serve(t, router, http.MethodOptions, "/data/receiver.json")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecovererTurnsPanicInto500(t *testing.T) {
	router := newTestRouter(panicResolver{})

	w := serve(t, router, http.MethodGet, "/data/aircraft.json")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type panicResolver struct{}

func (panicResolver) Resolve(ctx context.Context) (*adsb.Resolution, error) {
	panic("boom")
}
