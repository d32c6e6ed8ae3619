// Package persistence provides SQLite-based world state storage.
package persistence

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/config"
	"github.com/k7LqB9c2W/funsim-sub000/internal/engine"
	"github.com/k7LqB9c2W/funsim-sub000/internal/events"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
	"github.com/k7LqB9c2W/funsim-sub000/internal/settlements"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		sex INTEGER NOT NULL,
		age_days INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		days_no_food INTEGER NOT NULL,
		days_no_water INTEGER NOT NULL,
		pregnant INTEGER NOT NULL,
		gestation_left INTEGER NOT NULL,
		mate_rest INTEGER NOT NULL,
		wanderlust REAL NOT NULL,
		settlement_id INTEGER NOT NULL,
		role INTEGER NOT NULL,
		war_id INTEGER NOT NULL,
		army INTEGER NOT NULL,
		war_target_id INTEGER NOT NULL,
		carry_food INTEGER NOT NULL,
		carry_wood INTEGER NOT NULL,
		water_x INTEGER NOT NULL,
		water_y INTEGER NOT NULL,
		alive INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settlements (
		ord INTEGER PRIMARY KEY,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		faction_id INTEGER NOT NULL,
		founded_day INTEGER NOT NULL,
		stock_food INTEGER NOT NULL,
		stock_wood INTEGER NOT NULL,
		population INTEGER NOT NULL,
		roles_json TEXT NOT NULL,
		tier INTEGER NOT NULL,
		tech_tier INTEGER NOT NULL,
		tech_progress REAL NOT NULL,
		stability REAL NOT NULL,
		unrest_days INTEGER NOT NULL,
		capital INTEGER NOT NULL,
		capture_progress INTEGER NOT NULL,
		capture_faction_id INTEGER NOT NULL,
		siege_days INTEGER NOT NULL,
		core_clear_days INTEGER NOT NULL,
		overwhelm_days INTEGER NOT NULL,
		bins_json TEXT NOT NULL,
		army_target_id INTEGER NOT NULL,
		army_eta INTEGER NOT NULL,
		army_soldiers INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS factions (
		ord INTEGER PRIMARY KEY,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		color INTEGER NOT NULL,
		leader_name TEXT NOT NULL,
		leader_title TEXT NOT NULL,
		ideology TEXT NOT NULL,
		traits_json TEXT NOT NULL,
		tech_tier INTEGER NOT NULL,
		stability REAL NOT NULL,
		created_day INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS wars (
		id INTEGER PRIMARY KEY,
		attackers_json TEXT NOT NULL,
		defenders_json TEXT NOT NULL,
		start_day INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS terrain (
		id INTEGER PRIMARY KEY,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		tiles BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	CREATE INDEX IF NOT EXISTS idx_agents_settlement ON agents(settlement_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveWorld performs a full-replace save of the simulation.
func (db *DB) SaveWorld(sim *engine.Simulation) error {
	slog.Info("saving world state",
		"world", sim.WorldID, "day", sim.Day, "agents", len(sim.Pop.Agents))

	if err := db.saveAgents(sim.Pop); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := db.saveSettlements(sim.Towns); err != nil {
		return fmt.Errorf("save settlements: %w", err)
	}
	if err := db.saveFactions(sim.Factions); err != nil {
		return fmt.Errorf("save factions: %w", err)
	}
	if err := db.saveTerrain(sim.Field); err != nil {
		return fmt.Errorf("save terrain: %w", err)
	}
	if err := db.saveEvents(sim.Events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	fallback, _ := json.Marshal(sim.Pop.FallbackBins)
	meta := map[string]string{
		"world_id":           sim.WorldID,
		"day":                strconv.FormatInt(int64(sim.Day), 10),
		"seed":               strconv.FormatInt(sim.Seed, 10),
		"macro":              strconv.FormatBool(sim.Pop.Macro),
		"next_agent_id":      strconv.FormatInt(int64(sim.Pop.NextID()), 10),
		"next_settlement_id": strconv.FormatInt(int64(sim.Towns.NextID()), 10),
		"fallback_bins":      string(fallback),
	}
	for k, v := range meta {
		if err := db.SaveMeta(k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	slog.Info("world state saved", "day", sim.Day)
	return nil
}

func (db *DB) saveAgents(pop *agents.Population) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, sex, age_days, x, y, days_no_food, days_no_water, pregnant,
		 gestation_left, mate_rest, wanderlust, settlement_id, role,
		 war_id, army, war_target_id, carry_food, carry_wood,
		 water_x, water_y, alive)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive {
			continue
		}
		_, err := stmt.Exec(
			a.ID, a.Sex, a.AgeDays, a.X, a.Y, a.DaysNoFood, a.DaysNoWater,
			boolInt(a.Pregnant), a.GestationLeft, a.MateRest, a.Wanderlust,
			a.SettlementID, a.Role, a.WarID, a.Army, a.WarTargetID,
			a.CarryFood, a.CarryWood, a.WaterX, a.WaterY, 1,
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

func (db *DB) saveSettlements(m *settlements.Manager) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM settlements"); err != nil {
		return err
	}

	for i := range m.Settlements {
		s := &m.Settlements[i]
		rolesJSON, _ := json.Marshal(s.Roles)
		binsJSON, _ := json.Marshal(s.Bins)
		_, err := tx.Exec(`INSERT INTO settlements
			(ord, id, name, x, y, faction_id, founded_day, stock_food,
			 stock_wood, population, roles_json, tier, tech_tier, tech_progress,
			 stability, unrest_days, capital, capture_progress,
			 capture_faction_id, siege_days, core_clear_days, overwhelm_days,
			 bins_json, army_target_id, army_eta, army_soldiers)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, s.ID, s.Name, s.X, s.Y, s.FactionID, s.FoundedDay, s.StockFood,
			s.StockWood, s.Population, string(rolesJSON), s.Tier, s.TechTier,
			s.TechProgress, s.Stability, s.UnrestDays, boolInt(s.Capital),
			s.CaptureProgress, s.CaptureFactionID, s.SiegeDays,
			s.CoreClearDays, s.OverwhelmDays, string(binsJSON),
			s.ArmyTargetID, s.ArmyETA, s.ArmySoldiers,
		)
		if err != nil {
			return fmt.Errorf("insert settlement %d: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

func (db *DB) saveFactions(m *factions.Manager) error {
	snap := m.Snapshot()

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM factions"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM wars"); err != nil {
		return err
	}

	for i := range snap.Factions {
		f := &snap.Factions[i]
		traitsJSON, _ := json.Marshal(f.Traits)
		_, err := tx.Exec(`INSERT INTO factions
			(ord, id, name, color, leader_name, leader_title, ideology,
			 traits_json, tech_tier, stability, created_day)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, f.ID, f.Name, f.Color, f.LeaderName, f.LeaderTitle, f.Ideology,
			string(traitsJSON), f.TechTier, f.Stability, f.CreatedDay,
		)
		if err != nil {
			return fmt.Errorf("insert faction %d: %w", f.ID, err)
		}
	}

	for i := range snap.Wars {
		w := &snap.Wars[i]
		atk, _ := json.Marshal(w.Attackers)
		def, _ := json.Marshal(w.Defenders)
		_, err := tx.Exec(
			"INSERT INTO wars (id, attackers_json, defenders_json, start_day) VALUES (?, ?, ?, ?)",
			w.ID, string(atk), string(def), w.StartDay,
		)
		if err != nil {
			return fmt.Errorf("insert war %d: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	relJSON, _ := json.Marshal(snap.Relations)
	if err := db.SaveMeta("relations", string(relJSON)); err != nil {
		return err
	}
	if err := db.SaveMeta("next_faction_id", strconv.FormatInt(int64(snap.NextFactionID), 10)); err != nil {
		return err
	}
	return db.SaveMeta("next_war_id", strconv.FormatInt(int64(snap.NextWarID), 10))
}

func (db *DB) saveTerrain(f *terrain.Field) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO terrain (id, width, height, tiles) VALUES (1, ?, ?, ?)",
		f.W, f.H, encodeTiles(f),
	)
	return err
}

func (db *DB) saveEvents(l *events.Log) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events"); err != nil {
		return err
	}
	for _, e := range l.Events {
		_, err := tx.Exec(
			"INSERT INTO events (day, category, description) VALUES (?, ?, ?)",
			e.Day, e.Category, e.Description,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. Missing keys return empty, not error.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// LoadWorld reconstructs a simulation from the database. Returns nil with no
// error when the database holds no world yet.
func (db *DB) LoadWorld(t config.Tuning) (*engine.Simulation, error) {
	worldID, err := db.GetMeta("world_id")
	if err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	if worldID == "" {
		return nil, nil
	}

	day64, _ := strconv.ParseInt(metaOr(db, "day", "0"), 10, 32)
	field, err := db.loadTerrain()
	if err != nil {
		return nil, fmt.Errorf("load terrain: %w", err)
	}
	pop, err := db.loadAgents()
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	towns, err := db.loadSettlements(field)
	if err != nil {
		return nil, fmt.Errorf("load settlements: %w", err)
	}
	facs, err := db.loadFactions()
	if err != nil {
		return nil, fmt.Errorf("load factions: %w", err)
	}
	ev, err := db.loadEvents()
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	sim := engine.Restore(t, worldID, int32(day64), field, pop, towns, facs, ev)
	slog.Info("world state loaded",
		"world", worldID, "day", sim.Day,
		"agents", len(pop.Agents), "settlements", towns.Count())
	return sim, nil
}

func metaOr(db *DB, key, fallback string) string {
	v, err := db.GetMeta(key)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

func (db *DB) loadAgents() (*agents.Population, error) {
	rows, err := db.conn.Queryx(`SELECT id, sex, age_days, x, y, days_no_food,
		days_no_water, pregnant, gestation_left, mate_rest, wanderlust,
		settlement_id, role, war_id, army, war_target_id, carry_food,
		carry_wood, water_x, water_y, alive FROM agents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []agents.Agent
	for rows.Next() {
		var a agents.Agent
		var pregnant, alive int
		err := rows.Scan(&a.ID, &a.Sex, &a.AgeDays, &a.X, &a.Y, &a.DaysNoFood,
			&a.DaysNoWater, &pregnant, &a.GestationLeft, &a.MateRest,
			&a.Wanderlust, &a.SettlementID, &a.Role, &a.WarID, &a.Army,
			&a.WarTargetID, &a.CarryFood, &a.CarryWood, &a.WaterX, &a.WaterY,
			&alive)
		if err != nil {
			return nil, err
		}
		a.Pregnant = pregnant != 0
		a.Alive = alive != 0
		a.Goal = agents.GoalStayHome
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	nextID, _ := strconv.ParseInt(metaOr(db, "next_agent_id", "0"), 10, 32)
	macro := metaOr(db, "macro", "false") == "true"
	var fallback agents.CohortBins
	if raw := metaOr(db, "fallback_bins", ""); raw != "" {
		_ = json.Unmarshal([]byte(raw), &fallback)
	}
	return agents.RestorePopulation(list, int32(nextID), macro, fallback), nil
}

func (db *DB) loadSettlements(field *terrain.Field) (*settlements.Manager, error) {
	rows, err := db.conn.Queryx(`SELECT id, name, x, y, faction_id,
		founded_day, stock_food, stock_wood, population, roles_json, tier,
		tech_tier, tech_progress, stability, unrest_days, capital,
		capture_progress, capture_faction_id, siege_days, core_clear_days,
		overwhelm_days, bins_json, army_target_id, army_eta, army_soldiers
		FROM settlements ORDER BY ord`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []settlements.Settlement
	for rows.Next() {
		var s settlements.Settlement
		var rolesJSON, binsJSON string
		var capital int
		err := rows.Scan(&s.ID, &s.Name, &s.X, &s.Y, &s.FactionID,
			&s.FoundedDay, &s.StockFood, &s.StockWood, &s.Population,
			&rolesJSON, &s.Tier, &s.TechTier, &s.TechProgress, &s.Stability,
			&s.UnrestDays, &capital, &s.CaptureProgress, &s.CaptureFactionID,
			&s.SiegeDays, &s.CoreClearDays, &s.OverwhelmDays, &binsJSON,
			&s.ArmyTargetID, &s.ArmyETA, &s.ArmySoldiers)
		if err != nil {
			return nil, err
		}
		s.Capital = capital != 0
		s.WaterX, s.WaterY = -1, -1
		_ = json.Unmarshal([]byte(rolesJSON), &s.Roles)
		_ = json.Unmarshal([]byte(binsJSON), &s.Bins)
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	nextID, _ := strconv.ParseInt(metaOr(db, "next_settlement_id", "1"), 10, 32)
	return settlements.RestoreManager(field, list, int32(nextID)), nil
}

func (db *DB) loadFactions() (*factions.Manager, error) {
	rows, err := db.conn.Queryx(`SELECT id, name, color, leader_name,
		leader_title, ideology, traits_json, tech_tier, stability, created_day
		FROM factions ORDER BY ord`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snap factions.Snapshot
	for rows.Next() {
		var f factions.Faction
		var traitsJSON string
		err := rows.Scan(&f.ID, &f.Name, &f.Color, &f.LeaderName,
			&f.LeaderTitle, &f.Ideology, &traitsJSON, &f.TechTier,
			&f.Stability, &f.CreatedDay)
		if err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(traitsJSON), &f.Traits)
		snap.Factions = append(snap.Factions, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	warRows, err := db.conn.Queryx("SELECT id, attackers_json, defenders_json, start_day FROM wars ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer warRows.Close()
	for warRows.Next() {
		var w factions.War
		var atk, def string
		if err := warRows.Scan(&w.ID, &atk, &def, &w.StartDay); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(atk), &w.Attackers)
		_ = json.Unmarshal([]byte(def), &w.Defenders)
		snap.Wars = append(snap.Wars, w)
	}
	if err := warRows.Err(); err != nil {
		return nil, err
	}

	if raw := metaOr(db, "relations", ""); raw != "" {
		_ = json.Unmarshal([]byte(raw), &snap.Relations)
	}
	nf, _ := strconv.ParseInt(metaOr(db, "next_faction_id", "1"), 10, 32)
	nw, _ := strconv.ParseInt(metaOr(db, "next_war_id", "1"), 10, 32)
	snap.NextFactionID = int32(nf)
	snap.NextWarID = int32(nw)
	return factions.RestoreManager(snap), nil
}

func (db *DB) loadTerrain() (*terrain.Field, error) {
	var width, height int
	var blob []byte
	row := db.conn.QueryRowx("SELECT width, height, tiles FROM terrain WHERE id = 1")
	if err := row.Scan(&width, &height, &blob); err != nil {
		return nil, err
	}
	f := terrain.New(width, height)
	if err := decodeTiles(f, blob); err != nil {
		return nil, err
	}
	f.RefreshWaterScent()
	return f, nil
}

func (db *DB) loadEvents() (*events.Log, error) {
	var list []events.Event
	err := db.conn.Select(&list,
		"SELECT day, category, description FROM events ORDER BY id")
	if err != nil {
		return nil, err
	}
	return &events.Log{Events: list}, nil
}

// RecentEvents returns the most recent N persisted events.
func (db *DB) RecentEvents(limit int) ([]events.Event, error) {
	var list []events.Event
	err := db.conn.Select(&list,
		"SELECT day, category, description FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return list, err
}

const tileRecord = 13

// encodeTiles packs the tile grid into a fixed-width binary record per tile.
func encodeTiles(f *terrain.Field) []byte {
	out := make([]byte, 0, len(f.Tiles)*tileRecord)
	var sid [4]byte
	for i := range f.Tiles {
		t := &f.Tiles[i]
		out = append(out,
			byte(t.Kind), t.Vegetation, t.Food, boolByte(t.Burning), t.BurnDays,
			byte(t.Building.Kind), t.Building.Stage,
			boolByte(t.Building.Planted), t.Building.Growth,
		)
		binary.LittleEndian.PutUint32(sid[:], uint32(t.Building.SettlementID))
		out = append(out, sid[:]...)
	}
	return out
}

func decodeTiles(f *terrain.Field, blob []byte) error {
	if len(blob) != len(f.Tiles)*tileRecord {
		return fmt.Errorf("tile blob length %d does not match %dx%d grid",
			len(blob), f.W, f.H)
	}
	for i := range f.Tiles {
		rec := blob[i*tileRecord:]
		t := &f.Tiles[i]
		t.Kind = terrain.Kind(rec[0])
		t.Vegetation = rec[1]
		t.Food = rec[2]
		t.Burning = rec[3] != 0
		t.BurnDays = rec[4]
		t.Building.Kind = terrain.BuildingKind(rec[5])
		t.Building.Stage = rec[6]
		t.Building.Planted = rec[7] != 0
		t.Building.Growth = rec[8]
		t.Building.SettlementID = int32(binary.LittleEndian.Uint32(rec[9:13]))
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
