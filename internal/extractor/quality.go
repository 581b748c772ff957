package extractor

import (
	"math/rand"
	"sync"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/config"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

// Issue tags written to the upload record.
const (
	IssueLowBitrate    = "low_bitrate"
	IssueMediumBitrate = "medium_bitrate"
	IssueLowSampleRate = "low_sample_rate"
	IssueTooShort      = "too_short"
	IssueVeryLong      = "very_long"
)

// Quality score adjustments
const (
	penaltyLowBitrate    = 30
	penaltyMediumBitrate = 15
	penaltyLowSampleRate = 20
	bonusLossless        = 5
	penaltyTooShort      = 20
	penaltyVeryLong      = 10
)

// Defect is an intermittent problem found in the audio itself.
type Defect struct {
	Issue   string
	Penalty int
}

// DefectDetector inspects a file for defects that cannot be derived from
// its technical metadata.
type DefectDetector interface {
	Detect(info AudioInfo) []Defect
}

// NoDefects never reports a defect.
type NoDefects struct{}

func (NoDefects) Detect(AudioInfo) []Defect { return nil }

// RandomDefects reports each configured defect with its configured
// probability. It stands in for real signal analysis.
type RandomDefects struct {
	rules []config.DefectRule
	mu    sync.Mutex
	rng   *rand.Rand
}

func NewRandomDefects(rules []config.DefectRule, seed int64) *RandomDefects {
	return &RandomDefects{
		rules: rules,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (d *RandomDefects) Detect(AudioInfo) []Defect {
	d.mu.Lock()
	defer d.mu.Unlock()

	var found []Defect
	for _, r := range d.rules {
		if d.rng.Float64() < r.Probability {
			found = append(found, Defect{Issue: r.Issue, Penalty: r.Penalty})
		}
	}
	return found
}

// Quality is the outcome of scoring one file.
type Quality struct {
	Raw    int
	Score  int
	Issues domain.StringSlice
	Ready  bool
}

// ScoreQuality starts from 100 and applies fixed adjustments for bitrate,
// sample rate, lossless formats, duration and detected defects. Score is
// Raw clamped to [0, 100].
func ScoreQuality(info AudioInfo, defects []Defect) Quality {
	score := 100
	issues := domain.StringSlice{}

	switch {
	case info.Bitrate < constants.LowBitrateKbps:
		score -= penaltyLowBitrate
		issues = append(issues, IssueLowBitrate)
	case info.Bitrate < constants.MediumBitrateKbps:
		score -= penaltyMediumBitrate
		issues = append(issues, IssueMediumBitrate)
	}

	if info.SampleRate < constants.StandardSampleRate {
		score -= penaltyLowSampleRate
		issues = append(issues, IssueLowSampleRate)
	}

	if IsLossless(info.Format) {
		score += bonusLossless
	}

	switch {
	case info.DurationSeconds < constants.MinEstimatedDuration:
		score -= penaltyTooShort
		issues = append(issues, IssueTooShort)
	case info.DurationSeconds > constants.MaxEstimatedDuration:
		score -= penaltyVeryLong
		issues = append(issues, IssueVeryLong)
	}

	for _, d := range defects {
		score -= d.Penalty
		issues = append(issues, d.Issue)
	}

	final := clamp(score, 0, 100)
	return Quality{
		Raw:    score,
		Score:  final,
		Issues: issues,
		Ready:  final >= constants.ReadyScoreThreshold,
	}
}
