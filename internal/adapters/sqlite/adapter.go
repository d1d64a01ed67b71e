// Package sqlite provides a SQLite-backed implementation of the tierlist
// repository port.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // driver

	"github.com/soundtier/tierbeat/internal/core/domain"
	"github.com/soundtier/tierbeat/internal/core/ports"
)

// Adapter implements the tierlist repository port for SQLite.
type Adapter struct {
	db *sql.DB
}

var _ ports.TierlistRepository = (*Adapter)(nil)

// NewAdapter opens the database and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully.
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) migrate() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS tierlists (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			tier_order    TEXT NOT NULL,
			unranked_tier TEXT NOT NULL,
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS tierlist_songs (
			tierlist_id TEXT NOT NULL REFERENCES tierlists(id) ON DELETE CASCADE,
			tier        TEXT NOT NULL,
			position    INTEGER NOT NULL,
			track_id    TEXT NOT NULL,
			name        TEXT NOT NULL,
			artist      TEXT NOT NULL,
			PRIMARY KEY (tierlist_id, tier, position)
		);
	`)
	return err
}

// GetByID loads a saved tierlist, returning domain.ErrNotFound when the id
// is unknown.
func (a *Adapter) GetByID(ctx context.Context, id string) (ports.SavedTierlist, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT id, name, tier_order, unranked_tier FROM tierlists WHERE id = ?", id)

	var saved ports.SavedTierlist
	var tierOrderJSON string
	if err := row.Scan(&saved.ID, &saved.Name, &tierOrderJSON, &saved.UnrankedTier); err != nil {
		if err == sql.ErrNoRows {
			return ports.SavedTierlist{}, domain.ErrNotFound
		}
		return ports.SavedTierlist{}, fmt.Errorf("failed to load tierlist: %w", err)
	}
	if err := json.Unmarshal([]byte(tierOrderJSON), &saved.TierOrder); err != nil {
		return ports.SavedTierlist{}, fmt.Errorf("failed to decode tier order: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT tier, track_id, name, artist
		FROM tierlist_songs
		WHERE tierlist_id = ?
		ORDER BY tier, position ASC
	`, saved.ID)
	if err != nil {
		return ports.SavedTierlist{}, fmt.Errorf("failed to load tierlist songs: %w", err)
	}
	defer rows.Close()

	saved.Tiers = make(map[string][]domain.RankedSong)
	for rows.Next() {
		var song domain.RankedSong
		if err := rows.Scan(&song.Tier, &song.TrackID, &song.Name, &song.Artist); err != nil {
			return ports.SavedTierlist{}, fmt.Errorf("failed to scan tierlist song: %w", err)
		}
		saved.Tiers[song.Tier] = append(saved.Tiers[song.Tier], song)
	}
	if err := rows.Err(); err != nil {
		return ports.SavedTierlist{}, fmt.Errorf("failed to iterate tierlist songs: %w", err)
	}

	return saved, nil
}

// Save upserts a tierlist and its songs in one transaction.
func (a *Adapter) Save(ctx context.Context, t ports.SavedTierlist) error {
	tierOrderJSON, err := json.Marshal(t.TierOrder)
	if err != nil {
		return fmt.Errorf("failed to encode tier order: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tierlists (id, name, tier_order, unranked_tier)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			tier_order = excluded.tier_order,
			unranked_tier = excluded.unranked_tier
	`, t.ID, t.Name, string(tierOrderJSON), t.UnrankedTier)
	if err != nil {
		return fmt.Errorf("failed to save tierlist: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tierlist_songs WHERE tierlist_id = ?", t.ID); err != nil {
		return fmt.Errorf("failed to clear tierlist songs: %w", err)
	}

	for tier, songs := range t.Tiers {
		for i, song := range songs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tierlist_songs (tierlist_id, tier, position, track_id, name, artist)
				VALUES (?, ?, ?, ?, ?, ?)
			`, t.ID, tier, i, song.TrackID, song.Name, song.Artist)
			if err != nil {
				return fmt.Errorf("failed to save tierlist song: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tierlist: %w", err)
	}
	return nil
}
