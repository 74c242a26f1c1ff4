// Package store persists labeled regions in SQLite so that an annotation
// session can be resumed.
package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/phanxgames/photosphere"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no region has the given id.
var ErrNotFound = errors.New("store: region not found")

// Record is a stored region pair.
type Record struct {
	ID        string
	Image     string
	Pair      photosphere.RegionPair
	CreatedAt time.Time
}

// Store is a region database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	// m is not closed: that would close db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) { log.Printf("[migrate] "+format, v...) }
func (migrateLogger) Verbose() bool                  { return false }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRegion stores pair for image and returns its new id.
func (s *Store) SaveRegion(image string, pair photosphere.RegionPair) (string, error) {
	outline, err := json.Marshal(pair.Outline)
	if err != nil {
		return "", fmt.Errorf("encode outline: %w", err)
	}
	id := uuid.New().String()
	px, sp := pair.Pixel, pair.Spherical
	_, err = s.db.Exec(`
		INSERT INTO regions (
			region_id, image, name, pose, truncated, difficult,
			px_xmin, px_ymin, px_xmax, px_ymax,
			sp_xmin, sp_ymin, sp_xmax, sp_ymax,
			outline, created_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, image, px.Name, px.Pose, px.Truncated, px.Difficult,
		px.XMin, px.YMin, px.XMax, px.YMax,
		sp.XMin, sp.YMin, sp.XMax, sp.YMax,
		string(outline), s.now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert region: %w", err)
	}
	return id, nil
}

// ListRegions returns the regions of image in the order they were saved.
func (s *Store) ListRegions(image string) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT region_id, image, name, pose, truncated, difficult,
			px_xmin, px_ymin, px_xmax, px_ymax,
			sp_xmin, sp_ymin, sp_xmax, sp_ymax,
			outline, created_ns
		FROM regions WHERE image = ?
		ORDER BY created_ns, rowid`, image)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			px, sp  photosphere.Region
			outline sql.NullString
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Image, &px.Name, &px.Pose, &px.Truncated, &px.Difficult,
			&px.XMin, &px.YMin, &px.XMax, &px.YMax,
			&sp.XMin, &sp.YMin, &sp.XMax, &sp.YMax,
			&outline, &created); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		sp.Name, sp.Pose, sp.Truncated, sp.Difficult = px.Name, px.Pose, px.Truncated, px.Difficult
		r.Pair = photosphere.RegionPair{Pixel: px, Spherical: sp}
		if outline.Valid && outline.String != "" {
			if err := json.Unmarshal([]byte(outline.String), &r.Pair.Outline); err != nil {
				return nil, fmt.Errorf("decode outline of %s: %w", r.ID, err)
			}
		}
		r.CreatedAt = time.Unix(0, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRegion removes the region with the given id.
func (s *Store) DeleteRegion(id string) error {
	res, err := s.db.Exec(`DELETE FROM regions WHERE region_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete region: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete region: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Restore adds every stored region of image to sess and returns the ids in
// session order.
func (s *Store) Restore(image string, sess *photosphere.Session) ([]string, error) {
	recs, err := s.ListRegions(image)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		sess.Add(r.Pair)
		ids = append(ids, r.ID)
	}
	return ids, nil
}
