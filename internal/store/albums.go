package store

import (
	"context"
	"fmt"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

const albumColumns = `id, artist_id, title, batch_id, batch_upload_status, batch_error, tracks_uploaded,
	tracks_processed, primary_language, contains_local_content, cultural_theme, target_regions,
	upc_code, distribution_status, total_tracks, total_duration_seconds, average_quality_score,
	explicit_content, created_at, updated_at`

func (db *DB) CreateAlbum(ctx context.Context, a *domain.Album) error {
	now := db.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.BatchUploadStatus == "" {
		a.BatchUploadStatus = domain.BatchStatusProcessing
	}
	if a.DistributionStatus == "" {
		a.DistributionStatus = domain.DistributionDraft
	}

	query := `INSERT INTO albums (artist_id, title, batch_id, batch_upload_status, target_regions,
		distribution_status, created_at, updated_at)
		VALUES (:artist_id, :title, :batch_id, :batch_upload_status, :target_regions,
		:distribution_status, :created_at, :updated_at)`

	res, err := db.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("failed to insert album: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (db *DB) GetAlbum(ctx context.Context, id int64) (*domain.Album, error) {
	a := &domain.Album{}
	if err := db.GetContext(ctx, a, `SELECT `+albumColumns+` FROM albums WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "album", id)
	}
	return a, nil
}

func (db *DB) GetAlbumByBatch(ctx context.Context, batchID domain.BatchID) (*domain.Album, error) {
	a := &domain.Album{}
	if err := db.GetContext(ctx, a, `SELECT `+albumColumns+` FROM albums WHERE batch_id = ?`, batchID); err != nil {
		return nil, notFound(err, "album for batch", batchID)
	}
	return a, nil
}

func (db *DB) ListAlbums(ctx context.Context, limit int) ([]*domain.Album, error) {
	var albums []*domain.Album
	err := db.SelectContext(ctx, &albums, `SELECT `+albumColumns+` FROM albums ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	return albums, err
}

// UpdateBatchProgress records the batch status and sibling counters.
func (db *DB) UpdateBatchProgress(ctx context.Context, id int64, status domain.BatchStatus, uploaded, processed int) error {
	res, err := db.ExecContext(ctx, `UPDATE albums SET batch_upload_status = ?, tracks_uploaded = ?, tracks_processed = ?,
		updated_at = ? WHERE id = ?`, status, uploaded, processed, db.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "album", id)
}

func (db *DB) UpdateAlbumAggregates(ctx context.Context, id int64, agg domain.AlbumAggregates) error {
	args := struct {
		domain.AlbumAggregates
		ID        int64 `db:"id"`
		UpdatedAt any   `db:"updated_at"`
	}{agg, id, db.now()}

	query := `UPDATE albums SET
		primary_language = :primary_language,
		contains_local_content = :contains_local_content,
		cultural_theme = :cultural_theme,
		target_regions = :target_regions,
		explicit_content = :explicit_content,
		updated_at = :updated_at
	WHERE id = :id`

	res, err := db.NamedExecContext(ctx, query, args)
	if err != nil {
		return err
	}
	return expectRow(res, "album", id)
}

// SetAlbumUPC assigns code only when the album has none yet. It reports
// whether the code was written.
func (db *DB) SetAlbumUPC(ctx context.Context, id int64, code string) (bool, error) {
	res, err := db.ExecContext(ctx, `UPDATE albums SET upc_code = ?, updated_at = ? WHERE id = ? AND upc_code IS NULL`,
		code, db.now(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RecomputeAlbumCounters derives track totals and quality from the album's songs.
func (db *DB) RecomputeAlbumCounters(ctx context.Context, id int64) error {
	query := `UPDATE albums SET
		total_tracks = (SELECT COUNT(*) FROM songs WHERE album_id = albums.id),
		total_duration_seconds = (SELECT COALESCE(SUM(duration_seconds), 0) FROM songs WHERE album_id = albums.id),
		average_quality_score = (SELECT COALESCE(AVG(quality_score), 0) FROM songs WHERE album_id = albums.id),
		explicit_content = explicit_content OR EXISTS (SELECT 1 FROM songs WHERE album_id = albums.id AND explicit_content),
		updated_at = ?
	WHERE id = ?`

	res, err := db.ExecContext(ctx, query, db.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "album", id)
}

func (db *DB) CompleteAlbumBatch(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE albums SET batch_upload_status = ?, batch_error = NULL,
		distribution_status = ?, updated_at = ? WHERE id = ?`,
		domain.BatchStatusCompleted, domain.DistributionPendingReview, db.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "album", id)
}

func (db *DB) FailAlbumBatch(ctx context.Context, id int64, reason string) error {
	res, err := db.ExecContext(ctx, `UPDATE albums SET batch_upload_status = ?, batch_error = ?, updated_at = ? WHERE id = ?`,
		domain.BatchStatusFailed, reason, db.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "album", id)
}
