package batch

import (
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/config"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

// Aggregate is the set of content signals derived from a batch's valid uploads.
type Aggregate struct {
	Languages       domain.StringSlice
	Tracks          int
	LocalCount      int
	ExplicitCount   int
	TotalDuration   int
	MeanScore       float64
	MeanConfidence  float64
	PrimaryLanguage string
	CulturalTheme   string
	TargetRegions   domain.StringSlice
}

// HasLocalContent reports whether any track carries a local language.
func (a Aggregate) HasLocalContent() bool {
	return a.LocalCount > 0
}

// AlbumAggregates is the subset persisted onto the album.
func (a Aggregate) AlbumAggregates() domain.AlbumAggregates {
	return domain.AlbumAggregates{
		PrimaryLanguage:      a.PrimaryLanguage,
		ContainsLocalContent: a.HasLocalContent(),
		CulturalTheme:        a.CulturalTheme,
		TargetRegions:        a.TargetRegions,
		ExplicitContent:      a.ExplicitCount > 0,
	}
}

// Summarize aggregates the uploads under policy. Languages keep the order
// in which they first appear.
func Summarize(uploads []*domain.Upload, policy *config.Policy) Aggregate {
	agg := Aggregate{Languages: domain.StringSlice{}}
	if len(uploads) == 0 {
		agg.PrimaryLanguage = constants.LanguageEnglish
		agg.TargetRegions = TargetRegions(false, false, policy)
		return agg
	}

	var scoreSum int
	var confidenceSum float64
	for _, u := range uploads {
		for _, lang := range u.DetectedLanguages {
			if !agg.Languages.Contains(lang) {
				agg.Languages = append(agg.Languages, lang)
			}
		}
		if hasLocalLanguage(u.DetectedLanguages, policy) {
			agg.LocalCount++
		}
		if u.ExplicitContent {
			agg.ExplicitCount++
		}
		agg.TotalDuration += u.DurationSeconds
		scoreSum += u.QualityScore
		confidenceSum += u.ClassificationConfidence
	}

	agg.Tracks = len(uploads)
	agg.MeanScore = float64(scoreSum) / float64(agg.Tracks)
	agg.MeanConfidence = confidenceSum / float64(agg.Tracks)
	agg.PrimaryLanguage = PrimaryLanguage(agg.Languages, policy)
	agg.CulturalTheme = CulturalTheme(agg.LocalCount, agg.Tracks)
	agg.TargetRegions = TargetRegions(agg.HasLocalContent(), agg.Languages.Contains(constants.LanguageEnglish), policy)
	return agg
}

// PrimaryLanguage picks the first policy language present, then the first
// detected language, then English.
func PrimaryLanguage(languages []string, policy *config.Policy) string {
	for _, rule := range policy.Languages {
		for _, l := range languages {
			if l == rule.Name {
				return rule.Name
			}
		}
	}
	if len(languages) > 0 {
		return languages[0]
	}
	return constants.LanguageEnglish
}

// CulturalTheme classifies the album by its share of local-language tracks.
func CulturalTheme(local, total int) string {
	if total == 0 {
		return ""
	}
	ratio := float64(local) / float64(total)
	switch {
	case ratio > constants.TraditionalThemeRatio:
		return constants.ThemeTraditional
	case ratio > constants.FusionThemeRatio:
		return constants.ThemeFusion
	}
	return ""
}

// TargetRegions always includes the home territory, adds the regional set
// for local content and Global for English content.
func TargetRegions(local, english bool, policy *config.Policy) domain.StringSlice {
	regions := domain.StringSlice{policy.HomeTerritory}
	add := func(r string) {
		if !regions.Contains(r) {
			regions = append(regions, r)
		}
	}
	if local {
		for _, r := range policy.RegionalTerritories {
			add(r)
		}
	}
	if english {
		add(constants.RegionGlobal)
	}
	return regions
}

func hasLocalLanguage(languages []string, policy *config.Policy) bool {
	for _, l := range languages {
		if policy.IsLocalLanguage(l) {
			return true
		}
	}
	return false
}

// songProfile derives the per-song language fields and territories the
// same way the album aggregate does.
func songProfile(u *domain.Upload, policy *config.Policy) (primary string, local bool, territories domain.StringSlice) {
	languages := u.DetectedLanguages
	if len(languages) == 0 {
		languages = domain.StringSlice{constants.LanguageEnglish}
	}
	local = hasLocalLanguage(languages, policy)
	primary = PrimaryLanguage(languages, policy)
	territories = TargetRegions(local, languages.Contains(constants.LanguageEnglish), policy)
	return primary, local, territories
}

// buildReview derives the moderation record from the aggregate. Policy
// violation detection does not exist yet, so the list is always empty and
// urgent priority is never assigned.
func buildReview(albumID int64, agg Aggregate) *domain.ContentReview {
	violations := domain.StringSlice{}

	priority := domain.ReviewPriorityLow
	switch {
	case len(violations) > 0:
		priority = domain.ReviewPriorityUrgent
	case agg.HasLocalContent():
		priority = domain.ReviewPriorityMedium
	}

	return &domain.ContentReview{
		AlbumID:                  albumID,
		ExplicitContent:          agg.ExplicitCount > 0,
		CulturalSensitivity:      agg.HasLocalContent(),
		AudioQualityConcerns:     agg.MeanScore < constants.AudioConcernThreshold,
		PolicyViolations:         violations,
		Priority:                 priority,
		ClassificationConfidence: agg.MeanConfidence,
		Status:                   domain.ReviewStatusPending,
	}
}
