// Package extractor derives technical metadata, a quality score and a
// content classification for each uploaded audio file.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/config"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/storage"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/store"
)

type Extractor struct {
	db         *store.DB
	blobs      storage.BlobStore
	classifier *Classifier
	defects    DefectDetector
	logger     *logger.Logger
}

func New(db *store.DB, blobs storage.BlobStore, policy *config.Policy, defects DefectDetector, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Default()
	}
	if defects == nil {
		defects = NoDefects{}
	}
	return &Extractor{
		db:         db,
		blobs:      blobs,
		classifier: NewClassifier(policy),
		defects:    defects,
		logger:     log.WithComponent("extractor"),
	}
}

// Process extracts one upload and stores the result in a single update.
// A missing blob fails the upload permanently.
func (e *Extractor) Process(ctx context.Context, uploadID int64) (*domain.Extraction, error) {
	upload, err := e.db.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	if err := e.db.MarkUploadProcessing(ctx, uploadID); err != nil {
		return nil, fmt.Errorf("failed to mark upload processing: %w", err)
	}

	data, err := storage.ReadExisting(ctx, e.blobs, upload.FilePath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if markErr := e.db.MarkUploadFailed(ctx, uploadID, err.Error()); markErr != nil {
				e.logger.Error("Failed to mark upload failed", "upload_id", uploadID, "error", markErr)
			}
		}
		return nil, err
	}

	ext := e.Analyze(upload.OriginalFilename, data)
	if err := e.db.SaveExtraction(ctx, uploadID, ext); err != nil {
		return nil, err
	}

	e.logger.Info("Upload processed",
		"upload_id", uploadID,
		"format", ext.Format,
		"quality_score", ext.QualityScore,
		"issues", []string(ext.Issues),
		"languages", []string(ext.DetectedLanguages),
	)
	return &ext, nil
}

// Analyze computes the extraction for a file without touching the store.
func (e *Extractor) Analyze(filename string, data []byte) domain.Extraction {
	format := DetectFormat(filename, data)
	size := int64(len(data))

	tags := readTags(format, data)
	info := applyStream(EstimateAudio(format, size), tags.Stream, size)
	quality := ScoreQuality(info, e.defects.Detect(info))

	title := tags.Title
	if title == "" {
		title = titleFromFilename(filename)
	}
	class := e.classifier.Classify(filename, tags.Title, tags.Artist)

	return domain.Extraction{
		DurationSeconds:          info.DurationSeconds,
		Bitrate:                  info.Bitrate,
		SampleRate:               info.SampleRate,
		Channels:                 info.Channels,
		Format:                   info.Format,
		RawQualityScore:          quality.Raw,
		QualityScore:             quality.Score,
		Issues:                   quality.Issues,
		DetectedTitle:            title,
		DetectedArtist:           tags.Artist,
		DetectedGenre:            tags.Genre,
		DetectedLanguages:        class.Languages,
		ExplicitContent:          class.Explicit,
		VocalPercentage:          class.VocalPercentage,
		ClassificationConfidence: class.Confidence,
		HasArtwork:               tags.HasArtwork,
		ReadyForDistribution:     quality.Ready,
	}
}

// MarkFailed records a terminal extraction failure on the upload.
func (e *Extractor) MarkFailed(ctx context.Context, uploadID int64, reason string) error {
	return e.db.MarkUploadFailed(ctx, uploadID, reason)
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(strings.ReplaceAll(stem, "_", " "))
}
