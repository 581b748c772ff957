package store

import (
	"context"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

const reviewColumns = `id, album_id, explicit_content, cultural_sensitivity, audio_quality_concerns,
	policy_violations, priority, classification_confidence, status, created_at`

// CreateReviewIfAbsent inserts the review unless the album already has one.
// It reports whether a row was inserted.
func (db *DB) CreateReviewIfAbsent(ctx context.Context, r *domain.ContentReview) (bool, error) {
	r.CreatedAt = db.now()
	if r.Status == "" {
		r.Status = domain.ReviewStatusPending
	}

	query := `INSERT OR IGNORE INTO content_reviews (album_id, explicit_content, cultural_sensitivity,
		audio_quality_concerns, policy_violations, priority, classification_confidence, status, created_at)
		VALUES (:album_id, :explicit_content, :cultural_sensitivity, :audio_quality_concerns,
		:policy_violations, :priority, :classification_confidence, :status, :created_at)`

	res, err := db.NamedExecContext(ctx, query, r)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return true, err
	}
	r.ID = id
	return true, nil
}

func (db *DB) GetReviewByAlbum(ctx context.Context, albumID int64) (*domain.ContentReview, error) {
	r := &domain.ContentReview{}
	if err := db.GetContext(ctx, r, `SELECT `+reviewColumns+` FROM content_reviews WHERE album_id = ?`, albumID); err != nil {
		return nil, notFound(err, "review for album", albumID)
	}
	return r, nil
}

// ListPendingReviews orders urgent reviews first, then oldest first.
func (db *DB) ListPendingReviews(ctx context.Context, limit int) ([]*domain.ContentReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM content_reviews WHERE status = ?
		ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, created_at ASC
		LIMIT ?`

	var reviews []*domain.ContentReview
	err := db.SelectContext(ctx, &reviews, query, domain.ReviewStatusPending, limit)
	return reviews, err
}
