// Package batch promotes a finished upload batch into songs carrying ISRC
// and UPC identifiers.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/config"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/identifiers"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/store"
)

// Outcome is how one orchestrator run ended when it did not fail.
type Outcome string

const (
	// OutcomeAwaitingSiblings means some uploads are still being extracted.
	// The caller reschedules the run; nothing was created.
	OutcomeAwaitingSiblings Outcome = "awaiting_siblings"
	OutcomePromoted         Outcome = "promoted"
	OutcomeAlreadyCompleted Outcome = "already_completed"
)

// Progress counts the batch uploads by extraction state.
type Progress struct {
	Total     int
	Processed int
	Failed    int
	Pending   int
}

// Finished reports whether every upload reached a terminal state.
func (p Progress) Finished() bool {
	return p.Processed+p.Failed >= p.Total
}

// Result summarises one orchestrator run.
type Result struct {
	Outcome  Outcome
	Progress Progress
	Songs    int
	UPC      string
}

// Identity holds the registrant settings used to mint identifiers.
type Identity struct {
	ISRCCountry    string
	ISRCRegistrant string
	UPCPrefix      string
}

// Orchestrator turns a finished upload batch into an album of songs.
type Orchestrator struct {
	db       *store.DB
	policy   *config.Policy
	identity Identity
	logger   *logger.Logger
}

func New(db *store.DB, policy *config.Policy, identity Identity, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Default()
	}
	return &Orchestrator{
		db:       db,
		policy:   policy,
		identity: identity,
		logger:   log.WithComponent("batch"),
	}
}

// Run checks the batch and promotes it once every sibling upload has
// finished extraction. It is safe to run repeatedly for the same batch.
func (o *Orchestrator) Run(ctx context.Context, batchID domain.BatchID, albumID int64) (*Result, error) {
	if err := batchID.Validate(); err != nil {
		return nil, err
	}

	album, err := o.db.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album.BatchID != batchID {
		return nil, fmt.Errorf("%w: album %d does not own batch %s", domain.ErrValidation, albumID, batchID)
	}
	log := o.logger.WithBatch(batchID.String(), albumID)

	if album.BatchUploadStatus == domain.BatchStatusCompleted {
		log.Debug("Batch already completed")
		return &Result{Outcome: OutcomeAlreadyCompleted, UPC: deref(album.UPCCode)}, nil
	}

	uploads, err := o.db.ListUploadsByBatch(ctx, batchID, album.ArtistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch uploads: %w", err)
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyBatch, batchID)
	}

	progress := partition(uploads)
	if err := o.db.UpdateBatchProgress(ctx, albumID, domain.BatchStatusProcessing, progress.Total, progress.Processed); err != nil {
		return nil, fmt.Errorf("failed to record batch progress: %w", err)
	}

	if !progress.Finished() {
		log.Info("Waiting for sibling uploads", "pending", progress.Pending, "processed", progress.Processed, "failed", progress.Failed)
		return &Result{Outcome: OutcomeAwaitingSiblings, Progress: progress}, nil
	}

	valid := o.validUploads(uploads)
	if len(valid) == 0 {
		reason := fmt.Sprintf("none of %d uploads passed quality checks", progress.Total)
		if err := o.db.FailAlbumBatch(ctx, albumID, reason); err != nil {
			log.Error("Failed to mark batch failed", "error", err)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrNoValidUploads, reason)
	}

	agg := Summarize(valid, o.policy)
	if err := o.db.UpdateAlbumAggregates(ctx, albumID, agg.AlbumAggregates()); err != nil {
		return nil, fmt.Errorf("failed to store album aggregates: %w", err)
	}

	result, err := o.promote(ctx, album, valid, agg)
	if err != nil {
		if failErr := o.db.FailAlbumBatch(ctx, albumID, err.Error()); failErr != nil {
			log.Error("Failed to mark batch failed", "error", failErr)
		}
		return nil, err
	}
	result.Progress = progress

	log.Info("Batch promoted",
		"songs", result.Songs,
		"skipped", progress.Total-len(valid),
		"upc", result.UPC,
		"primary_language", agg.PrimaryLanguage,
	)
	return result, nil
}

// MarkFailed records a terminal orchestration failure on the album.
func (o *Orchestrator) MarkFailed(ctx context.Context, albumID int64, reason string) error {
	return o.db.FailAlbumBatch(ctx, albumID, reason)
}

func (o *Orchestrator) promote(ctx context.Context, album *domain.Album, valid []*domain.Upload, agg Aggregate) (*Result, error) {
	created, err := o.createSongs(ctx, album, valid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAllOrNothing, err)
	}

	upc, err := o.assignUPC(ctx, album)
	if err != nil {
		return nil, err
	}

	if err := o.db.RecomputeAlbumCounters(ctx, album.ID); err != nil {
		return nil, fmt.Errorf("failed to recompute album counters: %w", err)
	}

	if _, err := o.db.CreateReviewIfAbsent(ctx, buildReview(album.ID, agg)); err != nil {
		return nil, fmt.Errorf("failed to create content review: %w", err)
	}

	if err := o.db.CompleteAlbumBatch(ctx, album.ID); err != nil {
		return nil, fmt.Errorf("failed to complete batch: %w", err)
	}

	return &Result{Outcome: OutcomePromoted, Songs: created, UPC: upc}, nil
}

// createSongs creates one song per valid upload in a single transaction,
// each with its ISRC and a queued registration task. Uploads that already
// have a song from an earlier delivery are left alone; new songs are
// numbered after the album's last track in upload order.
func (o *Orchestrator) createSongs(ctx context.Context, album *domain.Album, valid []*domain.Upload) (int, error) {
	created := 0
	err := o.db.RunInTx(ctx, func(tx *store.DB) error {
		created = 0
		year := identifiers.YearCode(tx.Now())

		track, err := tx.MaxTrackNumber(ctx, album.ID)
		if err != nil {
			return err
		}

		for _, u := range valid {
			if _, err := tx.GetSongByUpload(ctx, u.ID); err == nil {
				continue
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}

			track++
			song := o.buildSong(album, u, track)
			if err := tx.CreateSong(ctx, song); err != nil {
				return err
			}

			code, err := o.allocateISRC(ctx, tx, song, year)
			if err != nil {
				return err
			}

			if err := tx.LinkUploadToSong(ctx, u.ID, song.ID); err != nil {
				return err
			}

			task, err := domain.NewTask(domain.TaskTypeRegisterISRC,
				domain.RegisterPayload{ISRCID: code.ID},
				domain.RegisterDedupeKey(code.Code),
				tx.Now())
			if err != nil {
				return err
			}
			if _, err := tx.EnqueueTask(ctx, task); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}

func (o *Orchestrator) allocateISRC(ctx context.Context, tx *store.DB, song *domain.Song, year string) (*domain.ISRCCode, error) {
	designation, err := tx.NextDesignation(ctx, o.identity.ISRCCountry, o.identity.ISRCRegistrant, year)
	if err != nil {
		return nil, err
	}
	isrc, err := identifiers.NewISRC(o.identity.ISRCCountry, o.identity.ISRCRegistrant, year, designation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	code := &domain.ISRCCode{
		Code:            isrc.String(),
		CountryCode:     isrc.Country,
		RegistrantCode:  isrc.Registrant,
		YearCode:        isrc.Year,
		DesignationCode: isrc.Designation,
		SongID:          song.ID,
		Status:          domain.ISRCStatusPending,
	}
	if err := tx.CreateISRC(ctx, code); err != nil {
		return nil, err
	}
	if err := tx.SetSongISRC(ctx, song.ID, code.Code); err != nil {
		return nil, err
	}
	song.ISRCCode = &code.Code
	return code, nil
}

func (o *Orchestrator) buildSong(album *domain.Album, u *domain.Upload, track int) *domain.Song {
	primary, local, territories := songProfile(u, o.policy)
	languages := u.DetectedLanguages
	if languages == nil {
		languages = domain.StringSlice{}
	}
	return &domain.Song{
		AlbumID:                 album.ID,
		ArtistID:                album.ArtistID,
		UploadID:                u.ID,
		Title:                   u.Title(),
		TrackNumber:             track,
		DurationSeconds:         u.DurationSeconds,
		Bitrate:                 u.Bitrate,
		SampleRate:              u.SampleRate,
		Channels:                u.Channels,
		Format:                  u.Format,
		QualityScore:            u.QualityScore,
		Genre:                   u.DetectedGenre,
		PrimaryLanguage:         primary,
		Languages:               languages,
		ContainsLocalContent:    local,
		ExplicitContent:         u.ExplicitContent,
		VocalPercentage:         u.VocalPercentage,
		DistributionTerritories: territories,
	}
}

// assignUPC generates the album UPC unless one is already stored.
func (o *Orchestrator) assignUPC(ctx context.Context, album *domain.Album) (string, error) {
	if album.UPCCode != nil {
		return *album.UPCCode, nil
	}

	code, err := identifiers.UPC(o.identity.UPCPrefix, album.ArtistID, album.ID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	written, err := o.db.SetAlbumUPC(ctx, album.ID, code)
	if err != nil {
		return "", fmt.Errorf("failed to store upc: %w", err)
	}
	if written {
		return code, nil
	}

	current, err := o.db.GetAlbum(ctx, album.ID)
	if err != nil {
		return "", err
	}
	return deref(current.UPCCode), nil
}

// validUploads keeps processed uploads that are ready for distribution and
// carry no blocking issue, preserving upload order.
func (o *Orchestrator) validUploads(uploads []*domain.Upload) []*domain.Upload {
	var valid []*domain.Upload
	for _, u := range uploads {
		if u.Status != domain.UploadStatusProcessed || !u.ReadyForDistribution {
			continue
		}
		if u.QualityScore < constants.ReadyScoreThreshold {
			continue
		}
		if o.blocked(u) {
			continue
		}
		valid = append(valid, u)
	}
	return valid
}

func (o *Orchestrator) blocked(u *domain.Upload) bool {
	for _, issue := range u.Issues {
		if o.policy.IsBlocking(issue) {
			return true
		}
	}
	return false
}

func partition(uploads []*domain.Upload) Progress {
	p := Progress{Total: len(uploads)}
	for _, u := range uploads {
		switch u.Status {
		case domain.UploadStatusProcessed:
			p.Processed++
		case domain.UploadStatusFailed:
			p.Failed++
		default:
			p.Pending++
		}
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
