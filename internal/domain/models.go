package domain

import (
	"time"
)

type UploadStatus string

const (
	UploadStatusQueued     UploadStatus = "queued"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusProcessed  UploadStatus = "processed"
	UploadStatusFailed     UploadStatus = "failed"
)

// Finished reports whether extraction has reached a terminal state.
func (s UploadStatus) Finished() bool {
	return s == UploadStatusProcessed || s == UploadStatusFailed
}

type BatchStatus string

const (
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

type DistributionStatus string

const (
	DistributionDraft         DistributionStatus = "draft"
	DistributionPendingReview DistributionStatus = "pending_review"
)

type ISRCStatus string

const (
	ISRCStatusPending    ISRCStatus = "pending"
	ISRCStatusRegistered ISRCStatus = "registered"
	ISRCStatusDisputed   ISRCStatus = "disputed"
)

type ReviewPriority string

const (
	ReviewPriorityUrgent ReviewPriority = "urgent"
	ReviewPriorityMedium ReviewPriority = "medium"
	ReviewPriorityLow    ReviewPriority = "low"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Upload is one submitted audio file. Extracted attributes stay at their
// zero values until Status reaches processed.
type Upload struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	ID                       int64        `json:"id" db:"id"`
	BatchID                  BatchID      `json:"batch_id" db:"batch_id"`
	ArtistID                 int64        `json:"artist_id" db:"artist_id"`
	AlbumID                  int64        `json:"album_id" db:"album_id"`
	OriginalFilename         string       `json:"original_filename" db:"original_filename"`
	FilePath                 string       `json:"file_path" db:"file_path"`
	FileSize                 int64        `json:"file_size" db:"file_size"`
	Status                   UploadStatus `json:"status" db:"status"`
	ProcessingError          *string      `json:"processing_error,omitempty" db:"processing_error"`
	DurationSeconds          int          `json:"duration_seconds" db:"duration_seconds"`
	Bitrate                  int          `json:"bitrate" db:"bitrate"`
	SampleRate               int          `json:"sample_rate" db:"sample_rate"`
	Channels                 int          `json:"channels" db:"channels"`
	Format                   string       `json:"format" db:"format"`
	QualityScore             int          `json:"quality_score" db:"quality_score"`
	Issues                   StringSlice  `json:"issues" db:"issues"`
	DetectedTitle            string       `json:"detected_title" db:"detected_title"`
	DetectedArtist           string       `json:"detected_artist" db:"detected_artist"`
	DetectedGenre            string       `json:"detected_genre" db:"detected_genre"`
	DetectedLanguages        StringSlice  `json:"detected_languages" db:"detected_languages"`
	ExplicitContent          bool         `json:"explicit_content" db:"explicit_content"`
	VocalPercentage          int          `json:"vocal_percentage" db:"vocal_percentage"`
	ClassificationConfidence float64      `json:"classification_confidence" db:"classification_confidence"`
	HasArtwork               bool         `json:"has_artwork" db:"has_artwork"`
	ReadyForDistribution     bool         `json:"ready_for_distribution" db:"ready_for_distribution"`
	SongID                   *int64       `json:"song_id,omitempty" db:"song_id"`
	ProcessedAt              *time.Time   `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt                time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time    `json:"updated_at" db:"updated_at"`
}

// HasIssue reports whether the extractor tagged the upload with issue.
func (u *Upload) HasIssue(issue string) bool {
	for _, i := range u.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// Title returns the best available title for the upload.
func (u *Upload) Title() string {
	if u.DetectedTitle != "" {
		return u.DetectedTitle
	}
	return u.OriginalFilename
}

// Extraction is the full set of attributes written back onto an upload in one update.
type Extraction struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	DurationSeconds          int         `json:"duration_seconds" db:"duration_seconds"`
	Bitrate                  int         `json:"bitrate" db:"bitrate"`
	SampleRate               int         `json:"sample_rate" db:"sample_rate"`
	Channels                 int         `json:"channels" db:"channels"`
	Format                   string      `json:"format" db:"format"`
	RawQualityScore          int         `json:"raw_quality_score" db:"-"`
	QualityScore             int         `json:"quality_score" db:"quality_score"`
	Issues                   StringSlice `json:"issues" db:"issues"`
	DetectedTitle            string      `json:"detected_title" db:"detected_title"`
	DetectedArtist           string      `json:"detected_artist" db:"detected_artist"`
	DetectedGenre            string      `json:"detected_genre" db:"detected_genre"`
	DetectedLanguages        StringSlice `json:"detected_languages" db:"detected_languages"`
	ExplicitContent          bool        `json:"explicit_content" db:"explicit_content"`
	VocalPercentage          int         `json:"vocal_percentage" db:"vocal_percentage"`
	ClassificationConfidence float64     `json:"classification_confidence" db:"classification_confidence"`
	HasArtwork               bool        `json:"has_artwork" db:"has_artwork"`
	ReadyForDistribution     bool        `json:"ready_for_distribution" db:"ready_for_distribution"`
}

// Album owns a batch of uploads and the content metadata derived from them.
type Album struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	ID                   int64              `json:"id" db:"id"`
	ArtistID             int64              `json:"artist_id" db:"artist_id"`
	Title                string             `json:"title" db:"title"`
	BatchID              BatchID            `json:"batch_id" db:"batch_id"`
	BatchUploadStatus    BatchStatus        `json:"batch_upload_status" db:"batch_upload_status"`
	BatchError           *string            `json:"batch_error,omitempty" db:"batch_error"`
	TracksUploaded       int                `json:"tracks_uploaded" db:"tracks_uploaded"`
	TracksProcessed      int                `json:"tracks_processed" db:"tracks_processed"`
	PrimaryLanguage      string             `json:"primary_language" db:"primary_language"`
	ContainsLocalContent bool               `json:"contains_local_content" db:"contains_local_content"`
	CulturalTheme        string             `json:"cultural_theme" db:"cultural_theme"`
	TargetRegions        StringSlice        `json:"target_regions" db:"target_regions"`
	UPCCode              *string            `json:"upc_code,omitempty" db:"upc_code"`
	DistributionStatus   DistributionStatus `json:"distribution_status" db:"distribution_status"`
	TotalTracks          int                `json:"total_tracks" db:"total_tracks"`
	TotalDuration        int                `json:"total_duration_seconds" db:"total_duration_seconds"`
	AverageQualityScore  float64            `json:"average_quality_score" db:"average_quality_score"`
	ExplicitContent      bool               `json:"explicit_content" db:"explicit_content"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
}

// AlbumAggregates are the content signals computed once from a batch's valid uploads.
type AlbumAggregates struct {
	PrimaryLanguage      string      `db:"primary_language"`
	ContainsLocalContent bool        `db:"contains_local_content"`
	CulturalTheme        string      `db:"cultural_theme"`
	TargetRegions        StringSlice `db:"target_regions"`
	ExplicitContent      bool        `db:"explicit_content"`
}

// Song is the published catalog entity created from one valid upload.
type Song struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	ID                      int64       `json:"id" db:"id"`
	AlbumID                 int64       `json:"album_id" db:"album_id"`
	ArtistID                int64       `json:"artist_id" db:"artist_id"`
	UploadID                int64       `json:"upload_id" db:"upload_id"`
	Title                   string      `json:"title" db:"title"`
	TrackNumber             int         `json:"track_number" db:"track_number"`
	DurationSeconds         int         `json:"duration_seconds" db:"duration_seconds"`
	Bitrate                 int         `json:"bitrate" db:"bitrate"`
	SampleRate              int         `json:"sample_rate" db:"sample_rate"`
	Channels                int         `json:"channels" db:"channels"`
	Format                  string      `json:"format" db:"format"`
	QualityScore            int         `json:"quality_score" db:"quality_score"`
	Genre                   string      `json:"genre" db:"genre"`
	PrimaryLanguage         string      `json:"primary_language" db:"primary_language"`
	Languages               StringSlice `json:"languages" db:"languages"`
	ContainsLocalContent    bool        `json:"contains_local_content" db:"contains_local_content"`
	ExplicitContent         bool        `json:"explicit_content" db:"explicit_content"`
	VocalPercentage         int         `json:"vocal_percentage" db:"vocal_percentage"`
	DistributionTerritories StringSlice `json:"distribution_territories" db:"distribution_territories"`
	ISRCCode                *string     `json:"isrc_code,omitempty" db:"isrc_code"`
	CreatedAt               time.Time   `json:"created_at" db:"created_at"`
}

// ISRCCode is a generated recording identifier and its registration state.
type ISRCCode struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	ID                        int64       `json:"id" db:"id"`
	Code                      string      `json:"code" db:"code"`
	CountryCode               string      `json:"country_code" db:"country_code"`
	RegistrantCode            string      `json:"registrant_code" db:"registrant_code"`
	YearCode                  string      `json:"year_code" db:"year_code"`
	DesignationCode           int         `json:"designation_code" db:"designation_code"`
	SongID                    int64       `json:"song_id" db:"song_id"`
	Status                    ISRCStatus  `json:"status" db:"status"`
	RegistrationReference     *string     `json:"registration_reference,omitempty" db:"registration_reference"`
	RegistrationAuthority     *string     `json:"registration_authority,omitempty" db:"registration_authority"`
	RegisteredAt              *time.Time  `json:"registered_at,omitempty" db:"registered_at"`
	Notes                     *string     `json:"notes,omitempty" db:"notes"`
	InternationalRegistration bool        `json:"international_registration" db:"international_registration"`
	InternationalRegisteredAt *time.Time  `json:"international_registered_at,omitempty" db:"international_registered_at"`
	InternationalTerritories  StringSlice `json:"international_territories" db:"international_territories"`
	CreatedAt                 time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time   `json:"updated_at" db:"updated_at"`
}

// ContentReview is the moderation record emitted once per promoted album.
type ContentReview struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	ID                       int64          `json:"id" db:"id"`
	AlbumID                  int64          `json:"album_id" db:"album_id"`
	ExplicitContent          bool           `json:"explicit_content" db:"explicit_content"`
	CulturalSensitivity      bool           `json:"cultural_sensitivity" db:"cultural_sensitivity"`
	AudioQualityConcerns     bool           `json:"audio_quality_concerns" db:"audio_quality_concerns"`
	PolicyViolations         StringSlice    `json:"policy_violations" db:"policy_violations"`
	Priority                 ReviewPriority `json:"priority" db:"priority"`
	ClassificationConfidence float64        `json:"classification_confidence" db:"classification_confidence"`
	Status                   ReviewStatus   `json:"status" db:"status"`
	CreatedAt                time.Time      `json:"created_at" db:"created_at"`
}
