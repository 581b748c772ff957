// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort           = "8080"
	DefaultDBPath         = "tesotunes.db"
	DefaultBlobRoot       = "uploads"
	DefaultBlobBackend    = BlobBackendLocal
	DefaultConcurrency    = 4
	DefaultPollInterval   = 2 * time.Second
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRetryCount     = 3
	DefaultRetryBase      = 1 * time.Second
	DefaultAlertChannel   = "tesotunes:alerts"
	DefaultISRCCountry    = "UG"
	DefaultISRCRegistrant = "TES"
	DefaultUPCPrefix      = "800"
	DefaultHomeCountry    = "UG"
	DefaultRegistryName   = "simulated-registry"
	DefaultLogMaxSizeMB   = 50
	DefaultLogMaxBackups  = 5
	DefaultLogMaxAgeDays  = 28
)

// Blob backends
const (
	BlobBackendLocal = "local"
	BlobBackendMinio = "minio"
)

// Task policies
const (
	ExtractMaxAttempts       = 3
	ExtractTimeout           = 5 * time.Minute
	PromoteMaxAttempts       = 3
	PromoteTimeout           = 30 * time.Minute
	PromoteWaitDelay         = 60 * time.Second
	RegisterMaxAttempts      = 3
	RegisterTimeout          = 5 * time.Minute
	InternationalMaxAttempts = 2
	InternationalTimeout     = 10 * time.Minute
	LeaseGrace               = 30 * time.Second
	RetryBackoffBase         = 10 * time.Second
	RetryBackoffMax          = 10 * time.Minute
)

// Quality scoring
const (
	ReadyScoreThreshold    = 70
	AudioConcernThreshold  = 75
	MinEstimatedDuration   = 30
	MaxEstimatedDuration   = 600
	MinEstimatedBitrate    = 64
	MaxEstimatedBitrate    = 320
	LowBitrateKbps         = 128
	MediumBitrateKbps      = 192
	LowSampleRateBitrate   = 96
	StandardSampleRate     = 44100
	ReducedSampleRate      = 22050
	DefaultChannels        = 2
	DefaultVocalPercentage = 80
	InstrumentalVocals     = 5
	KeywordConfidence      = 0.9
	DefaultedConfidence    = 0.6
	TraditionalThemeRatio  = 0.7
	FusionThemeRatio       = 0.3
)

// Byte rates per second used to estimate duration from file size.
var ByteRates = map[string]int64{
	FormatMP3:  16000,
	FormatWAV:  176400,
	FormatFLAC: 100000,
	FormatAAC:  12000,
	FormatM4A:  12000,
}

// Audio formats
const (
	FormatMP3  = "mp3"
	FormatWAV  = "wav"
	FormatFLAC = "flac"
	FormatAAC  = "aac"
	FormatM4A  = "m4a"
	FormatOGG  = "ogg"
)

// Cultural themes
const (
	ThemeTraditional = "Traditional Ugandan"
	ThemeFusion      = "Afro-Fusion"
	RegionGlobal     = "Global"
)

// Languages
const (
	LanguageEnglish = "English"
	LanguageLuganda = "Luganda"
	LanguageSwahili = "Swahili"
)

// Registration failure codes returned by the authority
const (
	RegistryCodeDuplicate  = "DUPLICATE_ISRC"
	RegistryCodeValidation = "VALIDATION_ERROR"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// API
const (
	MaxListResults  = 50
	MaxUploadBytes  = 512 << 20
	MultipartMemory = 32 << 20
)

// Characters to sanitize from filesystem paths
const InvalidPathChars = "<>:\"\\|?*"
