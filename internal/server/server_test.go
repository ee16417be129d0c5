package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evmap/internal/model"
	"github.com/sells-group/evmap/internal/store"
)

const testToken = "test-token"

func newTestServer(t *testing.T) (http.Handler, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.CreateToken(ctx, &model.Token{Value: testToken, Label: "test"}))

	return New(st, Options{}).Routes(), st
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func authed() map[string]string {
	return map[string]string{tokenHeader: testToken}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListLocations_Empty(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/locations", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListLocations_BadPaging(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/locations?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid limit", decodeError(t, rec))
}

func TestCreateLocation_RequiresToken(t *testing.T) {
	h, st := newTestServer(t)
	body := `{"name":"Acme EV","type":"Superchargers","longitude":14.56,"latitude":52.88}`

	rec := do(t, h, http.MethodPost, "/api/v1/locations", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing api token", decodeError(t, rec))

	rec = do(t, h, http.MethodPost, "/api/v1/locations", body, map[string]string{tokenHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api token", decodeError(t, rec))

	locs, err := st.ListLocations(context.Background(), store.LocationFilter{})
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestCreateLocation_DerivesMapsLink(t *testing.T) {
	h, st := newTestServer(t)
	body := `{"name":"Acme EV","type":"Superchargers","description":"8 stalls","longitude":14.56,"latitude":52.88}`

	rec := do(t, h, http.MethodPost, "/api/v1/locations", body, authed())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var loc model.Location
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loc))
	assert.NotZero(t, loc.ID)
	assert.Equal(t, "https://www.google.com/maps/place/52.88,14.56", loc.MapsLink)

	stored, err := st.GetLocation(context.Background(), loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme EV", stored.Name)
	assert.Equal(t, loc.MapsLink, stored.MapsLink)
}

func TestCreateLocation_BearerToken(t *testing.T) {
	h, _ := newTestServer(t)
	body := `{"name":"Hotel Wien","type":"Hotels","maps_link":"https://example.com/wien"}`

	rec := do(t, h, http.MethodPost, "/api/v1/locations", body, map[string]string{"Authorization": "Bearer " + testToken})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var loc model.Location
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loc))
	assert.Equal(t, "https://example.com/wien", loc.MapsLink)
	assert.Nil(t, loc.Longitude)
}

func TestCreateLocation_Validation(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"type":"Hotels"}`, "name failed required"},
		{"latitude out of range", `{"name":"a","type":"b","longitude":1,"latitude":91}`, "latitude failed lte"},
		{"half coordinates", `{"name":"a","type":"b","longitude":1}`, "longitude and latitude must be set together"},
		{"malformed json", `{"name":`, "invalid request body"},
		{"unknown field", `{"name":"a","type":"b","geometry":"POINT (1 2)"}`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/locations", tt.body, authed())
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.want)
		})
	}
}

func TestGetLocation(t *testing.T) {
	h, st := newTestServer(t)
	loc := model.Location{Name: "Acme EV", Type: "Superchargers"}
	require.NoError(t, st.CreateLocation(context.Background(), &loc))

	rec := do(t, h, http.MethodGet, "/api/v1/locations/1", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Acme EV"`)

	rec = do(t, h, http.MethodGet, "/api/v1/locations/99", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "location not found", decodeError(t, rec))

	rec = do(t, h, http.MethodGet, "/api/v1/locations/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateLocation(t *testing.T) {
	h, st := newTestServer(t)
	loc := model.Location{Name: "Acme EV", Type: "Superchargers"}
	require.NoError(t, st.CreateLocation(context.Background(), &loc))

	body := `{"name":"Acme EV Plus","type":"Superchargers","longitude":10,"latitude":50}`
	rec := do(t, h, http.MethodPut, "/api/v1/locations/1", body, authed())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := st.GetLocation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme EV Plus", got.Name)
	assert.Equal(t, "https://www.google.com/maps/place/50.0,10.0", got.MapsLink)

	rec = do(t, h, http.MethodPut, "/api/v1/locations/42", body, authed())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/v1/locations/1", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteLocation(t *testing.T) {
	h, st := newTestServer(t)
	loc := model.Location{Name: "Acme EV", Type: "Superchargers"}
	require.NoError(t, st.CreateLocation(context.Background(), &loc))

	rec := do(t, h, http.MethodDelete, "/api/v1/locations/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/locations/1", "", authed())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/locations/1", "", authed())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTypesAndFilters(t *testing.T) {
	h, st := newTestServer(t)
	_, err := st.SeedLocations(context.Background(), []model.Location{
		{Name: "Acme EV", Type: "Superchargers"},
		{Name: "Hotel Berlin", Type: "Hotels"},
		{Name: "Hotel Wien", Type: "Hotels"},
	}, false)
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/api/v1/types", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"type":"Hotels","count":2},{"type":"Superchargers","count":1}]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/locations?type=Hotels&q=wien", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var locs []model.Location
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &locs))
	require.Len(t, locs, 1)
	assert.Equal(t, "Hotel Wien", locs[0].Name)
}

func TestIndex(t *testing.T) {
	h, st := newTestServer(t)
	lon, lat := 14.56, 52.88
	loc := model.Location{
		Name: "Acme <EV>", Type: "Superchargers", Longitude: &lon, Latitude: &lat,
		MapsLink: "https://www.google.com/maps/place/52.88,14.56",
	}
	require.NoError(t, st.CreateLocation(context.Background(), &loc))

	rec := do(t, h, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Acme &lt;EV&gt;")
	assert.Contains(t, body, "<td>14.56</td>")
	assert.Contains(t, body, "Superchargers (1)")
}

func TestRequestToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, requestToken(req))

	req.Header.Set("Authorization", "bearer abc")
	assert.Equal(t, "abc", requestToken(req))

	req.Header.Set(tokenHeader, "xyz")
	assert.Equal(t, "xyz", requestToken(req))
}
