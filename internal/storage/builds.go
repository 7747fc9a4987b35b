package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"hsplit/internal/usage"
)

// ErrNoBuild is returned when no index build has been stored.
var ErrNoBuild = errors.New("no index build stored")

// IndexStore saves and loads usage index builds.
type IndexStore struct {
	db *DB
}

// createdAtLayout is fixed width so that created_at sorts as text in time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewIndexStore creates a store over db.
func NewIndexStore(db *DB) *IndexStore {
	return &IndexStore{db: db}
}

// Save stores ix as a new build and returns its metadata with BuildID and
// CreatedAt filled in.
func (s *IndexStore) Save(ix *usage.Index, meta usage.Meta) (usage.Meta, error) {
	meta.BuildID = uuid.New().String()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.Units = ix.UnitCount()
	meta.Symbols = ix.SymbolCount()

	err := s.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO index_builds (id, created_at, compile_db, fingerprint, marker, flag_mode, units, symbols, failed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, meta.BuildID, meta.CreatedAt.UTC().Format(createdAtLayout), meta.CompileDB, meta.Fingerprint,
			meta.Marker, meta.FlagMode, meta.Units, meta.Symbols, meta.Failed)
		if err != nil {
			return fmt.Errorf("failed to insert build: %w", err)
		}

		unitStmt, err := tx.Prepare(`INSERT INTO build_units (build_id, ordinal, unit) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = unitStmt.Close() }()
		for i, u := range ix.UnitIDs() {
			if _, err := unitStmt.Exec(meta.BuildID, i, u); err != nil {
				return fmt.Errorf("failed to insert unit %s: %w", u, err)
			}
		}

		postStmt, err := tx.Prepare(`INSERT INTO postings (build_id, symbol, units) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = postStmt.Close() }()
		for _, sym := range ix.Symbols() {
			bm := ix.Bitmap(sym)
			bm.RunOptimize()
			blob, err := bm.ToBytes()
			if err != nil {
				return fmt.Errorf("failed to serialize postings for %s: %w", sym, err)
			}
			if _, err := postStmt.Exec(meta.BuildID, sym, blob); err != nil {
				return fmt.Errorf("failed to insert postings for %s: %w", sym, err)
			}
		}
		return nil
	})
	if err != nil {
		return usage.Meta{}, err
	}

	s.db.logger.Info("Stored index build",
		"build", meta.BuildID,
		"units", meta.Units,
		"symbols", meta.Symbols,
	)
	return meta, nil
}

const buildColumns = `id, created_at, compile_db, fingerprint, marker, flag_mode, units, symbols, failed`

func scanBuild(row interface{ Scan(...any) error }) (usage.Meta, error) {
	var meta usage.Meta
	var created string
	err := row.Scan(&meta.BuildID, &created, &meta.CompileDB, &meta.Fingerprint,
		&meta.Marker, &meta.FlagMode, &meta.Units, &meta.Symbols, &meta.Failed)
	if err != nil {
		return usage.Meta{}, err
	}
	meta.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return usage.Meta{}, fmt.Errorf("invalid created_at %q: %w", created, err)
	}
	return meta, nil
}

// Latest returns the most recent build, or ErrNoBuild.
func (s *IndexStore) Latest() (usage.Meta, error) {
	meta, err := scanBuild(s.db.QueryRow(`SELECT ` + buildColumns + ` FROM index_builds ORDER BY created_at DESC, rowid DESC LIMIT 1`))
	if err == sql.ErrNoRows {
		return usage.Meta{}, ErrNoBuild
	}
	return meta, err
}

// Get returns the build with the given id, or ErrNoBuild.
func (s *IndexStore) Get(buildID string) (usage.Meta, error) {
	meta, err := scanBuild(s.db.QueryRow(`SELECT `+buildColumns+` FROM index_builds WHERE id = ?`, buildID))
	if err == sql.ErrNoRows {
		return usage.Meta{}, ErrNoBuild
	}
	return meta, err
}

// List returns up to limit builds, newest first. A limit of zero lists all.
func (s *IndexStore) List(limit int) ([]usage.Meta, error) {
	query := `SELECT ` + buildColumns + ` FROM index_builds ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []usage.Meta
	for rows.Next() {
		meta, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

// Load reads the index stored under buildID.
func (s *IndexStore) Load(buildID string) (*usage.Index, usage.Meta, error) {
	meta, err := s.Get(buildID)
	if err != nil {
		return nil, usage.Meta{}, err
	}

	units := make([]string, 0, meta.Units)
	rows, err := s.db.Query(`SELECT ordinal, unit FROM build_units WHERE build_id = ? ORDER BY ordinal`, buildID)
	if err != nil {
		return nil, usage.Meta{}, err
	}
	for rows.Next() {
		var ord int
		var unit string
		if err := rows.Scan(&ord, &unit); err != nil {
			_ = rows.Close()
			return nil, usage.Meta{}, err
		}
		if ord != len(units) {
			_ = rows.Close()
			return nil, usage.Meta{}, fmt.Errorf("build %s: unit numbering has a gap at %d", buildID, len(units))
		}
		units = append(units, unit)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, usage.Meta{}, err
	}

	postings := make(map[string]*roaring.Bitmap, meta.Symbols)
	rows, err = s.db.Query(`SELECT symbol, units FROM postings WHERE build_id = ?`, buildID)
	if err != nil {
		return nil, usage.Meta{}, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var sym string
		var blob []byte
		if err := rows.Scan(&sym, &blob); err != nil {
			return nil, usage.Meta{}, err
		}
		bm := roaring.New()
		if err := bm.UnmarshalBinary(blob); err != nil {
			return nil, usage.Meta{}, fmt.Errorf("build %s: postings for %s: %w", buildID, sym, err)
		}
		postings[sym] = bm
	}
	if err := rows.Err(); err != nil {
		return nil, usage.Meta{}, err
	}

	ix, err := usage.Restore(units, postings)
	if err != nil {
		return nil, usage.Meta{}, fmt.Errorf("build %s: %w", buildID, err)
	}
	return ix, meta, nil
}

// LoadLatest reads the most recent build.
func (s *IndexStore) LoadLatest() (*usage.Index, usage.Meta, error) {
	meta, err := s.Latest()
	if err != nil {
		return nil, usage.Meta{}, err
	}
	return s.Load(meta.BuildID)
}

// Prune deletes all but the newest keep builds and returns how many were removed.
func (s *IndexStore) Prune(keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.Exec(`
		DELETE FROM index_builds WHERE id NOT IN (
			SELECT id FROM index_builds ORDER BY created_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune builds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.db.logger.Debug("Pruned index builds", "removed", n, "kept", keep)
	}
	return int(n), nil
}
