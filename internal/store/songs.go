package store

import (
	"context"
	"fmt"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

const songColumns = `id, album_id, artist_id, upload_id, title, track_number, duration_seconds, bitrate,
	sample_rate, channels, format, quality_score, genre, primary_language, languages,
	contains_local_content, explicit_content, vocal_percentage, distribution_territories,
	isrc_code, created_at`

func (db *DB) CreateSong(ctx context.Context, s *domain.Song) error {
	s.CreatedAt = db.now()

	query := `INSERT INTO songs (album_id, artist_id, upload_id, title, track_number, duration_seconds,
		bitrate, sample_rate, channels, format, quality_score, genre, primary_language, languages,
		contains_local_content, explicit_content, vocal_percentage, distribution_territories, created_at)
		VALUES (:album_id, :artist_id, :upload_id, :title, :track_number, :duration_seconds,
		:bitrate, :sample_rate, :channels, :format, :quality_score, :genre, :primary_language, :languages,
		:contains_local_content, :explicit_content, :vocal_percentage, :distribution_territories, :created_at)`

	res, err := db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("failed to insert song for upload %d: %w", s.UploadID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func (db *DB) GetSong(ctx context.Context, id int64) (*domain.Song, error) {
	s := &domain.Song{}
	if err := db.GetContext(ctx, s, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "song", id)
	}
	return s, nil
}

func (db *DB) GetSongByUpload(ctx context.Context, uploadID int64) (*domain.Song, error) {
	s := &domain.Song{}
	if err := db.GetContext(ctx, s, `SELECT `+songColumns+` FROM songs WHERE upload_id = ?`, uploadID); err != nil {
		return nil, notFound(err, "song for upload", uploadID)
	}
	return s, nil
}

func (db *DB) ListSongsByAlbum(ctx context.Context, albumID int64) ([]*domain.Song, error) {
	var songs []*domain.Song
	err := db.SelectContext(ctx, &songs, `SELECT `+songColumns+` FROM songs WHERE album_id = ? ORDER BY track_number ASC`, albumID)
	return songs, err
}

// MaxTrackNumber returns the highest track number used on the album, or 0.
func (db *DB) MaxTrackNumber(ctx context.Context, albumID int64) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, `SELECT COALESCE(MAX(track_number), 0) FROM songs WHERE album_id = ?`, albumID)
	return n, err
}

func (db *DB) SetSongISRC(ctx context.Context, songID int64, code string) error {
	res, err := db.ExecContext(ctx, `UPDATE songs SET isrc_code = ? WHERE id = ?`, code, songID)
	if err != nil {
		return err
	}
	return expectRow(res, "song", songID)
}
