package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k7LqB9c2W/funsim-sub000/internal/config"
	"github.com/k7LqB9c2W/funsim-sub000/internal/engine"
)

func testServer() *Server {
	tn := config.Default()
	tn.WorldWidth = 64
	tn.WorldHeight = 64
	tn.StartingAgents = 20
	sim := engine.NewSimulation(tn)
	return &Server{Sim: sim, Eng: engine.NewEngine(sim), AdminKey: "sekrit"}
}

func TestStatusEndpoint(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, s.Sim.WorldID, body["world"])
	assert.Contains(t, body, "population")
	assert.Contains(t, body, "macro")
}

func TestZoneEndpointValidation(t *testing.T) {
	s := testServer()

	rec := httptest.NewRecorder()
	s.handleZone(rec, httptest.NewRequest(http.MethodGet, "/api/v1/zone?x=10&y=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(-1), body["owner"], "cold zone cache should report unowned")

	for _, q := range []string{"", "x=abc&y=1", "x=1", "x=-5&y=1", "x=1&y=9999"} {
		rec := httptest.NewRecorder()
		s.handleZone(rec, httptest.NewRequest(http.MethodGet, "/api/v1/zone?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q should be rejected", q)
	}
}

func TestSettlementDetailNotFound(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.handleSettlementDetail(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settlement/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.handleSettlementDetail(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settlement/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpeedEndpointAuth(t *testing.T) {
	s := testServer()
	h := s.adminOnly(s.handleSpeed)

	post := func(token, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		h(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, post("", `{"speed": 2}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post("wrong", `{"speed": 2}`).Code)

	rec := post("sekrit", `{"speed": 4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.0, s.Eng.Speed)

	assert.Equal(t, http.StatusBadRequest, post("sekrit", `{"speed": -1}`).Code)
	assert.Equal(t, http.StatusBadRequest, post("sekrit", `not json`).Code)

	// Disabled entirely without a key.
	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, post("sekrit", `{"speed": 2}`).Code)
}
