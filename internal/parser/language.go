package parser

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// detectableLanguages covers the languages found on Spanish-language outlets.
var detectableLanguages = []lingua.Language{
	lingua.Spanish, lingua.English, lingua.Catalan, lingua.Basque,
	lingua.Portuguese, lingua.French, lingua.Italian, lingua.German,
}

// LanguageDetector reports the language of an article body.
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector builds a detector. Building loads language models, so
// a single detector should be reused for a whole scrape.
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectableLanguages...).
			Build(),
	}
}

// Detect returns the lowercase ISO 639-1 code of text, or false when the
// language cannot be determined reliably.
func (d *LanguageDetector) Detect(text string) (string, bool) {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
