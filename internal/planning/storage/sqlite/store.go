package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrCycleNotFound is returned by GetCycle for an unknown cycle ID.
var ErrCycleNotFound = errors.New("planning cycle not found")

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// CycleStore provides persistence for planning cycles.
type CycleStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending
// migrations.
func Open(path string) (*CycleStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Pragmas are per connection; a single writer keeps them in force.
	db.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &CycleStore{db: db}, nil
}

// NewCycleStore wraps an already migrated database.
func NewCycleStore(db *sql.DB) *CycleStore {
	return &CycleStore{db: db}
}

// Close closes the underlying database.
func (s *CycleStore) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the applied migration version and dirty flag.
func (s *CycleStore) SchemaVersion() (uint, bool, error) {
	m, err := newMigrate(s.db)
	if err != nil {
		return 0, false, err
	}
	// Closing m would close the shared *sql.DB.
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func migrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// InsertCycle persists a cycle with its path samples and decisions in one
// transaction. If CycleID is empty, a UUID is generated.
func (s *CycleStore) InsertCycle(c *CycleRecord) error {
	if c.CycleID == "" {
		c.CycleID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixNano()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var errStr, latticeStr interface{}
	if c.Error != "" {
		errStr = c.Error
	}
	if len(c.LatticeJSON) > 0 {
		latticeStr = string(c.LatticeJSON)
	}
	_, err = tx.Exec(`
		INSERT INTO planning_cycles (
			cycle_id, created_at, status, error, total_cost, elapsed_ns,
			path_length, level_count, version, git_sha, lattice_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CycleID, c.CreatedAt, c.Status, errStr, c.TotalCost, c.ElapsedNanos,
		c.PathLength, c.LevelCount, c.Version, c.GitSHA, latticeStr,
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	if len(c.Points) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO planning_path_points (
				cycle_id, seq, s, l, dl, ddl, x, y, theta, kappa, dkappa, arc_s
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare path points: %w", err)
		}
		defer stmt.Close()
		for i, p := range c.Points {
			if _, err := stmt.Exec(c.CycleID, i, p.S, p.L, p.DL, p.DDL, p.X, p.Y, p.Theta, p.Kappa, p.DKappa, p.ArcS); err != nil {
				return fmt.Errorf("insert path point %d: %w", i, err)
			}
		}
	}

	for _, d := range c.Decisions {
		_, err := tx.Exec(`
			INSERT INTO planning_decisions (cycle_id, obstacle_id, seq, kind, distance, description)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.CycleID, d.ObstacleID, d.Seq, d.Kind, d.Distance, d.Description)
		if err != nil {
			return fmt.Errorf("insert decision for %s: %w", d.ObstacleID, err)
		}
	}

	return tx.Commit()
}

const cycleColumns = `cycle_id, created_at, status, error, total_cost, elapsed_ns,
	path_length, level_count, version, git_sha, lattice_json`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCycle(row scanner) (*CycleRecord, error) {
	var c CycleRecord
	var errStr, version, gitSHA, lattice sql.NullString
	var totalCost, pathLength sql.NullFloat64
	var elapsed, levels sql.NullInt64
	if err := row.Scan(
		&c.CycleID, &c.CreatedAt, &c.Status, &errStr, &totalCost, &elapsed,
		&pathLength, &levels, &version, &gitSHA, &lattice,
	); err != nil {
		return nil, err
	}
	c.Error = errStr.String
	c.TotalCost = totalCost.Float64
	c.ElapsedNanos = elapsed.Int64
	c.PathLength = pathLength.Float64
	c.LevelCount = int(levels.Int64)
	c.Version = version.String
	c.GitSHA = gitSHA.String
	if lattice.Valid {
		c.LatticeJSON = []byte(lattice.String)
	}
	return &c, nil
}

// GetCycle returns a cycle with its path samples and decisions.
func (s *CycleStore) GetCycle(cycleID string) (*CycleRecord, error) {
	c, err := scanCycle(s.db.QueryRow(`SELECT `+cycleColumns+` FROM planning_cycles WHERE cycle_id = ?`, cycleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", cycleID, ErrCycleNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get cycle: %w", err)
	}

	if c.Points, err = s.pathPoints(cycleID); err != nil {
		return nil, err
	}
	if c.Decisions, err = s.decisions(cycleID); err != nil {
		return nil, err
	}
	return c, nil
}

// ListRecentCycles returns cycle summaries, newest first. Path samples and
// decisions are not loaded.
func (s *CycleStore) ListRecentCycles(limit int) ([]*CycleRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+cycleColumns+` FROM planning_cycles
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []*CycleRecord
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCyclesBefore removes cycles created before cutoff (unix nanos) and
// returns how many were deleted.
func (s *CycleStore) DeleteCyclesBefore(cutoff int64) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM planning_cycles WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete cycles: %w", err)
	}
	return res.RowsAffected()
}

func (s *CycleStore) pathPoints(cycleID string) ([]PathPointRecord, error) {
	rows, err := s.db.Query(`
		SELECT s, l, dl, ddl, x, y, theta, kappa, dkappa, arc_s
		FROM planning_path_points WHERE cycle_id = ? ORDER BY seq`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query path points: %w", err)
	}
	defer rows.Close()

	var out []PathPointRecord
	for rows.Next() {
		var p PathPointRecord
		if err := rows.Scan(&p.S, &p.L, &p.DL, &p.DDL, &p.X, &p.Y, &p.Theta, &p.Kappa, &p.DKappa, &p.ArcS); err != nil {
			return nil, fmt.Errorf("scan path point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *CycleStore) decisions(cycleID string) ([]DecisionRecord, error) {
	rows, err := s.db.Query(`
		SELECT obstacle_id, seq, kind, distance, description
		FROM planning_decisions WHERE cycle_id = ? ORDER BY obstacle_id, seq`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var d DecisionRecord
		if err := rows.Scan(&d.ObstacleID, &d.Seq, &d.Kind, &d.Distance, &d.Description); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
