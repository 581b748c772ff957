package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/storage"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/store"
)

// IngestService is the entry point for artists: it creates albums, accepts
// uploads and schedules the background tasks that turn them into songs.
type IngestService struct {
	Repo        *store.DB
	Blobs       storage.WritableBlobStore
	Logger      *logger.Logger
	KeyTemplate string
}

func NewIngestService(repo *store.DB, blobs storage.WritableBlobStore, log *logger.Logger) *IngestService {
	if log == nil {
		log = logger.Default()
	}
	return &IngestService{
		Repo:        repo,
		Blobs:       blobs,
		Logger:      log.WithComponent("ingest"),
		KeyTemplate: storage.DefaultUploadKeyTemplate,
	}
}

// UploadInput is one file in an upload request. Data is stored under a
// generated key; without Data, Path must name a blob that already exists.
type UploadInput struct {
	Filename string
	Path     string
	Data     []byte
}

// AlbumDetail is an album with its published songs.
type AlbumDetail struct {
	Album *domain.Album
	Songs []*domain.Song
}

func (s *IngestService) CreateAlbum(ctx context.Context, artistID int64, title string) (*domain.Album, error) {
	title = strings.TrimSpace(title)
	if artistID <= 0 {
		return nil, fmt.Errorf("%w: artist id must be positive", domain.ErrValidation)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: album title is required", domain.ErrValidation)
	}

	album := &domain.Album{
		ArtistID:      artistID,
		Title:         title,
		BatchID:       domain.NewBatchID(),
		TargetRegions: domain.StringSlice{},
	}
	if err := s.Repo.CreateAlbum(ctx, album); err != nil {
		return nil, err
	}
	s.Logger.Info("Album created", "album_id", album.ID, "batch_id", album.BatchID, "artist_id", artistID)
	return album, nil
}

// AddUploads stores and registers files for the album's batch and queues an
// extraction task for each.
func (s *IngestService) AddUploads(ctx context.Context, albumID int64, files []UploadInput) ([]*domain.Upload, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files in request", domain.ErrValidation)
	}

	album, err := s.Repo.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album.BatchUploadStatus == domain.BatchStatusCompleted {
		return nil, fmt.Errorf("%w: album %d is already published", domain.ErrValidation, albumID)
	}

	existing, err := s.Repo.ListUploadsByBatch(ctx, album.BatchID, album.ArtistID)
	if err != nil {
		return nil, err
	}

	uploads := make([]*domain.Upload, 0, len(files))
	for i, f := range files {
		u, err := s.prepareUpload(ctx, album, len(existing)+i+1, f)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}

	err = s.Repo.RunInTx(ctx, func(tx *store.DB) error {
		for _, u := range uploads {
			if err := tx.CreateUpload(ctx, u); err != nil {
				return err
			}
			if err := enqueue(ctx, tx, domain.TaskTypeExtractMetadata,
				domain.ExtractPayload{UploadID: u.ID}, domain.ExtractDedupeKey(u.ID)); err != nil {
				return err
			}
		}
		return tx.UpdateBatchProgress(ctx, album.ID, domain.BatchStatusProcessing,
			len(existing)+len(uploads), album.TracksProcessed)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Uploads registered", "album_id", album.ID, "count", len(uploads))
	return uploads, nil
}

func (s *IngestService) prepareUpload(ctx context.Context, album *domain.Album, index int, f UploadInput) (*domain.Upload, error) {
	if strings.TrimSpace(f.Filename) == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrValidation)
	}

	u := &domain.Upload{
		BatchID:          album.BatchID,
		ArtistID:         album.ArtistID,
		AlbumID:          album.ID,
		OriginalFilename: f.Filename,
		Issues:           domain.StringSlice{},
	}

	if f.Data != nil {
		key, err := storage.BuildUploadKey(s.KeyTemplate, album.ArtistID, album.BatchID.String(), index, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if err := s.Blobs.Write(ctx, key, f.Data); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", f.Filename, err)
		}
		u.FilePath = key
		u.FileSize = int64(len(f.Data))
		return u, nil
	}

	if f.Path == "" {
		return nil, fmt.Errorf("%w: %s has neither content nor a path", domain.ErrValidation, f.Filename)
	}
	ok, err := s.Blobs.Exists(ctx, f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", f.Path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no stored file at %s", domain.ErrValidation, f.Path)
	}
	u.FilePath = f.Path
	return u, nil
}

// SubmitBatch schedules the orchestrator for the album. Submitting again
// while a run is pending returns the pending task.
func (s *IngestService) SubmitBatch(ctx context.Context, albumID int64) (*domain.Task, error) {
	album, err := s.Repo.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album.BatchUploadStatus == domain.BatchStatusCompleted {
		return nil, fmt.Errorf("%w: album %d is already published", domain.ErrValidation, albumID)
	}

	key := domain.PromoteDedupeKey(album.BatchID)
	if existing, err := s.Repo.GetActiveTask(ctx, domain.TaskTypePromoteBatch, key); err != nil {
		return nil, fmt.Errorf("failed to check for existing task: %w", err)
	} else if existing != nil {
		s.Logger.Info("Batch already submitted", "task_id", existing.ID, "album_id", albumID)
		return existing, nil
	}

	task, err := domain.NewTask(domain.TaskTypePromoteBatch,
		domain.PromotePayload{BatchID: album.BatchID, AlbumID: album.ID}, key, s.Repo.Now())
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.EnqueueTask(ctx, task); err != nil {
		return nil, err
	}
	s.Logger.Info("Batch submitted", "task_id", task.ID, "album_id", albumID, "batch_id", album.BatchID)
	return task, nil
}

// RetryBatch requeues the failed uploads of a failed batch and submits it again.
func (s *IngestService) RetryBatch(ctx context.Context, albumID int64) (*domain.Task, error) {
	album, err := s.Repo.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album.BatchUploadStatus != domain.BatchStatusFailed {
		return nil, fmt.Errorf("%w: album %d batch is %s, not failed", domain.ErrValidation, albumID, album.BatchUploadStatus)
	}

	err = s.Repo.RunInTx(ctx, func(tx *store.DB) error {
		ids, err := tx.ResetBatchFailures(ctx, album.BatchID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := enqueue(ctx, tx, domain.TaskTypeExtractMetadata,
				domain.ExtractPayload{UploadID: id}, domain.ExtractDedupeKey(id)); err != nil {
				return err
			}
		}
		return tx.UpdateBatchProgress(ctx, album.ID, domain.BatchStatusProcessing, album.TracksUploaded, album.TracksProcessed)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset batch: %w", err)
	}

	s.Logger.Info("Batch retried", "album_id", albumID, "batch_id", album.BatchID)
	return s.SubmitBatch(ctx, albumID)
}

// RequestRegistration queues registration of a pending ISRC.
func (s *IngestService) RequestRegistration(ctx context.Context, code string) (*domain.Task, error) {
	isrc, err := s.Repo.GetISRCByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if isrc.Status != domain.ISRCStatusPending {
		return nil, fmt.Errorf("%w: isrc %s is %s", domain.ErrValidation, isrc.Code, isrc.Status)
	}

	key := domain.RegisterDedupeKey(isrc.Code)
	if existing, err := s.Repo.GetActiveTask(ctx, domain.TaskTypeRegisterISRC, key); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	task, err := domain.NewTask(domain.TaskTypeRegisterISRC, domain.RegisterPayload{ISRCID: isrc.ID}, key, s.Repo.Now())
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.EnqueueTask(ctx, task); err != nil {
		return nil, err
	}
	s.Logger.Info("Registration requested", "isrc", isrc.Code, "task_id", task.ID)
	return task, nil
}

func (s *IngestService) GetAlbum(ctx context.Context, id int64) (*AlbumDetail, error) {
	album, err := s.Repo.GetAlbum(ctx, id)
	if err != nil {
		return nil, err
	}
	songs, err := s.Repo.ListSongsByAlbum(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AlbumDetail{Album: album, Songs: songs}, nil
}

func (s *IngestService) ListAlbums(ctx context.Context) ([]*domain.Album, error) {
	return s.Repo.ListAlbums(ctx, constants.MaxListResults)
}

func (s *IngestService) GetUpload(ctx context.Context, id int64) (*domain.Upload, error) {
	return s.Repo.GetUpload(ctx, id)
}

func (s *IngestService) GetISRC(ctx context.Context, code string) (*domain.ISRCCode, error) {
	return s.Repo.GetISRCByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *IngestService) ListPendingReviews(ctx context.Context) ([]*domain.ContentReview, error) {
	return s.Repo.ListPendingReviews(ctx, constants.MaxListResults)
}

func (s *IngestService) ListTasks(ctx context.Context, limit int) ([]*domain.Task, error) {
	if limit <= 0 || limit > constants.MaxListResults {
		limit = constants.MaxListResults
	}
	return s.Repo.ListTasks(ctx, limit)
}

func (s *IngestService) TaskStats(ctx context.Context) (*store.TaskStats, error) {
	return s.Repo.GetTaskStats(ctx)
}

func enqueue(ctx context.Context, db *store.DB, taskType domain.TaskType, payload any, key string) error {
	task, err := domain.NewTask(taskType, payload, key, db.Now())
	if err != nil {
		return err
	}
	_, err = db.EnqueueTask(ctx, task)
	return err
}
