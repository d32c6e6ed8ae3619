// Package api provides the read-only HTTP surface for observing a running
// world, plus a token-gated speed control.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/engine"
	"github.com/k7LqB9c2W/funsim-sub000/internal/persistence"
)

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Addr     string
	AdminKey string // bearer token for POST endpoints; empty disables them

	started time.Time
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.started = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/settlements", s.handleSettlements)
	mux.HandleFunc("/api/v1/settlement/", s.handleSettlementDetail)
	mux.HandleFunc("/api/v1/factions", s.handleFactions)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/zone", s.handleZone)
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")
	go func() {
		if err := http.ListenAndServe(s.Addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"world":       s.Sim.WorldID,
		"day":         s.Sim.Day,
		"age":         humanize.Comma(int64(s.Sim.Day)) + " days",
		"uptime":      humanize.Time(s.started),
		"speed":       s.Eng.Speed,
		"macro":       s.Sim.Pop.Macro,
		"population":  s.Sim.Stats.Population,
		"settlements": s.Sim.Stats.Settlements,
		"factions":    s.Sim.Stats.Factions,
		"wars":        s.Sim.Stats.Wars,
		"stats":       s.Sim.Stats,
	})
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	type row struct {
		ID         int32  `json:"id"`
		Name       string `json:"name"`
		X          int    `json:"x"`
		Y          int    `json:"y"`
		FactionID  int32  `json:"faction_id"`
		Population int    `json:"population"`
		Tier       string `json:"tier"`
		TechTier   int    `json:"tech_tier"`
		Stability  string `json:"stability"`
		UnderSiege bool   `json:"under_siege"`
	}
	out := make([]row, 0, s.Sim.Towns.Count())
	for i := range s.Sim.Towns.Settlements {
		t := &s.Sim.Towns.Settlements[i]
		out = append(out, row{
			ID: t.ID, Name: t.Name, X: t.X, Y: t.Y,
			FactionID:  t.FactionID,
			Population: t.Population,
			Tier:       t.Tier.String(),
			TechTier:   t.TechTier,
			Stability:  humanize.FormatFloat("#.##", t.Stability),
			UnderSiege: t.UnderSiege(),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleSettlementDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/settlement/")
	id, err := strconv.ParseInt(idStr, 10, 32)
	if err != nil {
		http.Error(w, "bad settlement id", http.StatusBadRequest)
		return
	}
	t := s.Sim.Towns.Get(int32(id))
	if t == nil {
		http.Error(w, "no such settlement", http.StatusNotFound)
		return
	}
	roles := map[string]int{}
	for ri := 0; ri < agents.NumRoles; ri++ {
		roles[agents.RoleName(agents.Role(ri))] = t.Roles[ri]
	}
	writeJSON(w, map[string]any{
		"id":               t.ID,
		"name":             t.Name,
		"x":                t.X,
		"y":                t.Y,
		"faction_id":       t.FactionID,
		"founded_day":      t.FoundedDay,
		"population":       t.Population,
		"roles":            roles,
		"stock_food":       t.StockFood,
		"stock_wood":       t.StockWood,
		"houses":           t.Houses,
		"farms":            t.Farms,
		"granaries":        t.Granaries,
		"wells":            t.Wells,
		"housing_cap":      t.HousingCap,
		"tier":             t.Tier.String(),
		"tech_tier":        t.TechTier,
		"stability":        t.Stability,
		"capital":          t.Capital,
		"territory_zones":  t.TerritoryZones,
		"border_pressure":  t.BorderPressure,
		"war_pressure":     t.WarPressure,
		"capture_progress": t.CaptureProgress,
		"siege_days":       t.SiegeDays,
	})
}

func (s *Server) handleFactions(w http.ResponseWriter, r *http.Request) {
	type row struct {
		ID          int32  `json:"id"`
		Name        string `json:"name"`
		Leader      string `json:"leader"`
		Ideology    string `json:"ideology"`
		Population  string `json:"population"`
		Settlements int    `json:"settlements"`
		Territory   int    `json:"territory_zones"`
		TechTier    int    `json:"tech_tier"`
		Stability   string `json:"stability"`
	}
	out := make([]row, 0, s.Sim.Factions.Count())
	for i := range s.Sim.Factions.Factions {
		f := &s.Sim.Factions.Factions[i]
		out = append(out, row{
			ID: f.ID, Name: f.Name,
			Leader:      f.LeaderTitle + " " + f.LeaderName,
			Ideology:    f.Ideology,
			Population:  humanize.Comma(int64(f.Population)),
			Settlements: f.SettlementCount,
			Territory:   f.TerritoryZones,
			TechTier:    f.TechTier,
			Stability:   humanize.FormatFloat("#.##", f.Stability),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"alive": s.Sim.Pop.AliveCount(),
		"macro": s.Sim.Pop.Macro,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	n := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 && v <= 500 {
			n = v
		}
	}
	writeJSON(w, s.Sim.Events.Recent(n))
}

// handleZone answers territory queries at tile coordinates. Stale or
// unclaimed zones read as owner -1 with zero density and conflict.
func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil || !s.Sim.Field.InBounds(x, y) {
		http.Error(w, "bad coordinates", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"owner":    s.Sim.Towns.ZoneOwnerAt(x, y),
		"pop":      s.Sim.Towns.ZonePopulationAt(x, y),
		"conflict": s.Sim.Towns.ZoneConflictAt(x, y),
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Speed < 0 || body.Speed > 100 {
		http.Error(w, "speed must be in [0, 100]", http.StatusBadRequest)
		return
	}
	s.Eng.Speed = body.Speed
	slog.Info("speed changed", "speed", body.Speed)
	writeJSON(w, map[string]any{"speed": body.Speed})
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}
