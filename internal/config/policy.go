package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
)

// LanguageRule maps a language to the filename and title markers that
// identify it. Rules are listed in primary-language priority order.
type LanguageRule struct {
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
}

// DefectRule describes one simulated intermittent defect.
type DefectRule struct {
	Issue       string  `toml:"issue"`
	Probability float64 `toml:"probability"`
	Penalty     int     `toml:"penalty"`
}

// Policy is the content classification and release policy. It is loaded
// from POLICY_FILE when set, otherwise DefaultPolicy applies.
type Policy struct {
	Languages            []LanguageRule `toml:"languages"`
	ExplicitKeywords     []string       `toml:"explicit_keywords"`
	InstrumentalKeywords []string       `toml:"instrumental_keywords"`
	BlockingIssues       []string       `toml:"blocking_issues"`
	Defects              []DefectRule   `toml:"defects"`
	HomeTerritory        string         `toml:"home_territory"`
	RegionalTerritories  []string       `toml:"regional_territories"`
}

func DefaultPolicy() *Policy {
	return &Policy{
		Languages: []LanguageRule{
			{
				Name:     constants.LanguageLuganda,
				Keywords: []string{"luganda", "ganda", "buganda", "kampala", "nze", "nkwagala", "webale", "mukwano", "omukwano", "ssebo", "nnyabo", "katonda", "kadongo", "baganda", "muwala", "mulenzi"},
			},
			{
				Name:     constants.LanguageSwahili,
				Keywords: []string{"swahili", "kiswahili", "nakupenda", "mapenzi", "moyo", "habari", "asante", "rafiki", "mungu", "pamoja", "furaha", "bongo", "taarab", "upendo"},
			},
		},
		ExplicitKeywords:     []string{"explicit", "parental advisory", "uncensored", "nsfw", "dirty"},
		InstrumentalKeywords: []string{"instrumental", "karaoke", "beat", "riddim", "backing track"},
		BlockingIssues:       []string{"clipping", "too_short"},
		Defects: []DefectRule{
			{Issue: "clipping", Probability: 0.10, Penalty: 10},
			{Issue: "noise", Probability: 0.067, Penalty: 5},
		},
		HomeTerritory:       constants.DefaultHomeCountry,
		RegionalTerritories: []string{"KE", "TZ", "RW", "BI", "SS"},
	}
}

// LoadPolicy reads a TOML policy file. Sections missing from the file keep
// their default values.
func LoadPolicy(path string) (*Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	var override Policy
	if err := toml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	policy.merge(&override)
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

func (p *Policy) merge(o *Policy) {
	if o.Languages != nil {
		p.Languages = o.Languages
	}
	if o.ExplicitKeywords != nil {
		p.ExplicitKeywords = o.ExplicitKeywords
	}
	if o.InstrumentalKeywords != nil {
		p.InstrumentalKeywords = o.InstrumentalKeywords
	}
	if o.BlockingIssues != nil {
		p.BlockingIssues = o.BlockingIssues
	}
	if o.Defects != nil {
		p.Defects = o.Defects
	}
	if o.HomeTerritory != "" {
		p.HomeTerritory = o.HomeTerritory
	}
	if o.RegionalTerritories != nil {
		p.RegionalTerritories = o.RegionalTerritories
	}
}

func (p *Policy) Validate() error {
	for _, d := range p.Defects {
		if d.Probability < 0 || d.Probability > 1 {
			return fmt.Errorf("defect %s probability must be within [0,1], got %v", d.Issue, d.Probability)
		}
		if d.Penalty < 0 {
			return fmt.Errorf("defect %s penalty must not be negative, got %d", d.Issue, d.Penalty)
		}
	}
	for _, l := range p.Languages {
		if l.Name == "" {
			return fmt.Errorf("language rule without a name")
		}
	}
	if p.HomeTerritory == "" {
		return fmt.Errorf("home_territory cannot be empty")
	}
	return nil
}

// IsBlocking reports whether issue keeps an upload out of the release.
func (p *Policy) IsBlocking(issue string) bool {
	for _, b := range p.BlockingIssues {
		if b == issue {
			return true
		}
	}
	return false
}

// IsLocalLanguage reports whether lang is one of the keyword-detected languages.
func (p *Policy) IsLocalLanguage(lang string) bool {
	for _, l := range p.Languages {
		if l.Name == lang {
			return true
		}
	}
	return false
}
