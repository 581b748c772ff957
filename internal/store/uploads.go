package store

import (
	"context"
	"fmt"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

const uploadColumns = `id, batch_id, artist_id, album_id, original_filename, file_path, file_size,
	status, processing_error, duration_seconds, bitrate, sample_rate, channels, format,
	quality_score, issues, detected_title, detected_artist, detected_genre, detected_languages,
	explicit_content, vocal_percentage, classification_confidence, has_artwork,
	ready_for_distribution, song_id, processed_at, created_at, updated_at`

func (db *DB) CreateUpload(ctx context.Context, u *domain.Upload) error {
	now := db.now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Status == "" {
		u.Status = domain.UploadStatusQueued
	}

	query := `INSERT INTO uploads (batch_id, artist_id, album_id, original_filename, file_path, file_size,
		status, issues, detected_languages, created_at, updated_at)
		VALUES (:batch_id, :artist_id, :album_id, :original_filename, :file_path, :file_size,
		:status, :issues, :detected_languages, :created_at, :updated_at)`

	res, err := db.NamedExecContext(ctx, query, u)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (db *DB) GetUpload(ctx context.Context, id int64) (*domain.Upload, error) {
	u := &domain.Upload{}
	err := db.GetContext(ctx, u, `SELECT `+uploadColumns+` FROM uploads WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "upload", id)
	}
	return u, nil
}

// ListUploadsByBatch returns every upload in the batch owned by the artist,
// ordered by id so track numbering is stable across reruns.
func (db *DB) ListUploadsByBatch(ctx context.Context, batchID domain.BatchID, artistID int64) ([]*domain.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE batch_id = ? AND artist_id = ? ORDER BY id ASC`

	var uploads []*domain.Upload
	err := db.SelectContext(ctx, &uploads, query, batchID, artistID)
	return uploads, err
}

func (db *DB) MarkUploadProcessing(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE uploads SET status = ?, processing_error = NULL, updated_at = ? WHERE id = ?`,
		domain.UploadStatusProcessing, db.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "upload", id)
}

// SaveExtraction writes every extracted attribute in one statement and marks
// the upload processed. A retried extraction overwrites the previous values.
func (db *DB) SaveExtraction(ctx context.Context, id int64, ext domain.Extraction) error {
	now := db.now()
	args := struct {
		domain.Extraction
		ID          int64  `db:"id"`
		Status      string `db:"status"`
		ProcessedAt any    `db:"processed_at"`
		UpdatedAt   any    `db:"updated_at"`
	}{
		Extraction:  ext,
		ID:          id,
		Status:      string(domain.UploadStatusProcessed),
		ProcessedAt: now,
		UpdatedAt:   now,
	}

	query := `UPDATE uploads SET
		status = :status,
		processing_error = NULL,
		duration_seconds = :duration_seconds,
		bitrate = :bitrate,
		sample_rate = :sample_rate,
		channels = :channels,
		format = :format,
		quality_score = :quality_score,
		issues = :issues,
		detected_title = :detected_title,
		detected_artist = :detected_artist,
		detected_genre = :detected_genre,
		detected_languages = :detected_languages,
		explicit_content = :explicit_content,
		vocal_percentage = :vocal_percentage,
		classification_confidence = :classification_confidence,
		has_artwork = :has_artwork,
		ready_for_distribution = :ready_for_distribution,
		processed_at = :processed_at,
		updated_at = :updated_at
	WHERE id = :id`

	res, err := db.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	return expectRow(res, "upload", id)
}

func (db *DB) MarkUploadFailed(ctx context.Context, id int64, reason string) error {
	res, err := db.ExecContext(ctx, `UPDATE uploads SET status = ?, processing_error = ?, updated_at = ? WHERE id = ?`,
		domain.UploadStatusFailed, reason, db.now(), id)
	if err != nil {
		return err
	}
	return expectRow(res, "upload", id)
}

func (db *DB) LinkUploadToSong(ctx context.Context, uploadID, songID int64) error {
	res, err := db.ExecContext(ctx, `UPDATE uploads SET song_id = ?, updated_at = ? WHERE id = ?`, songID, db.now(), uploadID)
	if err != nil {
		return err
	}
	return expectRow(res, "upload", uploadID)
}

// ResetBatchFailures requeues the failed uploads of a batch so they can be extracted again.
func (db *DB) ResetBatchFailures(ctx context.Context, batchID domain.BatchID) ([]int64, error) {
	var ids []int64
	err := db.SelectContext(ctx, &ids, `SELECT id FROM uploads WHERE batch_id = ? AND status = ? ORDER BY id`,
		batchID, domain.UploadStatusFailed)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	_, err = db.ExecContext(ctx, `UPDATE uploads SET status = ?, processing_error = NULL, updated_at = ? WHERE batch_id = ? AND status = ?`,
		domain.UploadStatusQueued, db.now(), batchID, domain.UploadStatusFailed)
	return ids, err
}
