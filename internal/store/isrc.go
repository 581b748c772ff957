package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

const isrcColumns = `id, code, country_code, registrant_code, year_code, designation_code, song_id, status,
	registration_reference, registration_authority, registered_at, notes, international_registration,
	international_registered_at, international_territories, created_at, updated_at`

// NextDesignation atomically advances the designation counter for the
// (country, registrant, year) scope and returns the new value. Inside a
// transaction the increment rolls back with everything else, so committed
// designations have no gaps.
func (db *DB) NextDesignation(ctx context.Context, country, registrant, year string) (int, error) {
	query := `INSERT INTO isrc_sequences (country_code, registrant_code, year_code, last_designation)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (country_code, registrant_code, year_code)
		DO UPDATE SET last_designation = last_designation + 1
		RETURNING last_designation`

	var next int
	if err := db.GetContext(ctx, &next, query, country, registrant, year); err != nil {
		return 0, fmt.Errorf("failed to allocate designation: %w", err)
	}
	return next, nil
}

func (db *DB) CreateISRC(ctx context.Context, c *domain.ISRCCode) error {
	now := db.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = domain.ISRCStatusPending
	}

	query := `INSERT INTO isrc_codes (code, country_code, registrant_code, year_code, designation_code, song_id,
		status, international_territories, created_at, updated_at)
		VALUES (:code, :country_code, :registrant_code, :year_code, :designation_code, :song_id,
		:status, :international_territories, :created_at, :updated_at)`

	res, err := db.NamedExecContext(ctx, query, c)
	if err != nil {
		return fmt.Errorf("failed to insert isrc %s: %w", c.Code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (db *DB) GetISRC(ctx context.Context, id int64) (*domain.ISRCCode, error) {
	c := &domain.ISRCCode{}
	if err := db.GetContext(ctx, c, `SELECT `+isrcColumns+` FROM isrc_codes WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "isrc", id)
	}
	return c, nil
}

func (db *DB) GetISRCByCode(ctx context.Context, code string) (*domain.ISRCCode, error) {
	c := &domain.ISRCCode{}
	if err := db.GetContext(ctx, c, `SELECT `+isrcColumns+` FROM isrc_codes WHERE code = ?`, code); err != nil {
		return nil, notFound(err, "isrc", code)
	}
	return c, nil
}

func (db *DB) GetISRCBySong(ctx context.Context, songID int64) (*domain.ISRCCode, error) {
	c := &domain.ISRCCode{}
	if err := db.GetContext(ctx, c, `SELECT `+isrcColumns+` FROM isrc_codes WHERE song_id = ?`, songID); err != nil {
		return nil, notFound(err, "isrc for song", songID)
	}
	return c, nil
}

func (db *DB) ListISRCsByAlbum(ctx context.Context, albumID int64) ([]*domain.ISRCCode, error) {
	query := `SELECT ` + isrcColumns + ` FROM isrc_codes
		WHERE song_id IN (SELECT id FROM songs WHERE album_id = ?)
		ORDER BY designation_code ASC`

	var codes []*domain.ISRCCode
	err := db.SelectContext(ctx, &codes, query, albumID)
	return codes, err
}

// Status transitions only leave pending. They report whether the row moved.

func (db *DB) MarkISRCRegistered(ctx context.Context, id int64, reference, authority string) (bool, error) {
	now := db.now()
	res, err := db.ExecContext(ctx, `UPDATE isrc_codes SET status = ?, registration_reference = ?, registration_authority = ?,
		registered_at = ?, notes = NULL, updated_at = ? WHERE id = ? AND status = ?`,
		domain.ISRCStatusRegistered, reference, authority, now, now, id, domain.ISRCStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *DB) MarkISRCDisputed(ctx context.Context, id int64, notes string) (bool, error) {
	res, err := db.ExecContext(ctx, `UPDATE isrc_codes SET status = ?, notes = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.ISRCStatusDisputed, notes, db.now(), id, domain.ISRCStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *DB) SetISRCNotes(ctx context.Context, id int64, notes string) error {
	res, err := db.ExecContext(ctx, `UPDATE isrc_codes SET notes = ?, updated_at = ? WHERE id = ?`, notes, db.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "isrc", id)
}

func (db *DB) MarkISRCInternational(ctx context.Context, id int64, territories domain.StringSlice, at time.Time) error {
	res, err := db.ExecContext(ctx, `UPDATE isrc_codes SET international_registration = 1, international_registered_at = ?,
		international_territories = ?, updated_at = ? WHERE id = ? AND status = ?`,
		at.UTC(), territories, db.now(), id, domain.ISRCStatusRegistered)
	if err != nil {
		return err
	}
	return expectRow(res, "registered isrc", id)
}
