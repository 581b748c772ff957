package extractor

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/config"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

// Classification is the content profile guessed from an upload's text.
type Classification struct {
	Languages       domain.StringSlice
	Explicit        bool
	VocalPercentage int
	Confidence      float64
}

type languageMatcher struct {
	name     string
	keywords []string
}

// Classifier matches normalised filename, title and artist text against
// the keyword lists of a policy.
type Classifier struct {
	languages    []languageMatcher
	explicit     []string
	instrumental []string
}

func NewClassifier(policy *config.Policy) *Classifier {
	c := &Classifier{
		explicit:     normalizeAll(policy.ExplicitKeywords),
		instrumental: normalizeAll(policy.InstrumentalKeywords),
	}
	for _, rule := range policy.Languages {
		c.languages = append(c.languages, languageMatcher{
			name:     rule.Name,
			keywords: normalizeAll(rule.Keywords),
		})
	}
	return c
}

// Classify detects languages, explicit content and vocal presence. Explicit
// content is judged on the title only.
func (c *Classifier) Classify(filename, title, artist string) Classification {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	text := normalize(strings.Join([]string{stem, title, artist}, " "))

	result := Classification{
		Languages:       domain.StringSlice{},
		VocalPercentage: constants.DefaultVocalPercentage,
		Confidence:      constants.KeywordConfidence,
	}

	for _, lang := range c.languages {
		if matchesAny(text, lang.keywords) {
			result.Languages = append(result.Languages, lang.name)
		}
	}
	if len(result.Languages) == 0 {
		result.Languages = domain.StringSlice{constants.LanguageEnglish}
		result.Confidence = constants.DefaultedConfidence
	}

	titleText := title
	if titleText == "" {
		titleText = stem
	}
	result.Explicit = matchesAny(normalize(titleText), c.explicit)

	if matchesAny(text, c.instrumental) {
		result.VocalPercentage = constants.InstrumentalVocals
	}

	return result
}

// normalize strips diacritics, case-folds and reduces s to space separated
// words padded with a space on either side, so keywords match whole words.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(words, " ") + " "
}

func normalizeAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		n := normalize(k)
		if strings.TrimSpace(n) == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

func matchesAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
