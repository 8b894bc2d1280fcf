package langdetect

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// ErrUndetectable is returned when no language can be determined.
var ErrUndetectable = errors.New("language could not be detected")

// maxSampleRunes bounds the text handed to the language models.
const maxSampleRunes = 4000

// DefaultLanguages are the candidates considered when none are given.
// They cover the corpus languages plus the ones most often mistaken for
// them on mixed-language home pages.
var DefaultLanguages = []lingua.Language{
	lingua.Korean,
	lingua.Japanese,
	lingua.Chinese,
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Russian,
	lingua.Vietnamese,
	lingua.Thai,
	lingua.Indonesian,
}

// Detector identifies the language of a text.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector restricted to languages, or to
// DefaultLanguages when none are given.
func NewDetector(languages ...lingua.Language) *Detector {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
	}
}

// Detect returns the lowercase ISO 639-1 code of the dominant language of
// text ("ko", "ja", "zh", "en", ...) and the detector's confidence in it.
func (d *Detector) Detect(text string) (string, float64, error) {
	text = sample(strings.TrimSpace(text))
	if text == "" {
		return "", 0, ErrUndetectable
	}

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", 0, ErrUndetectable
	}

	code := strings.ToLower(lang.IsoCode639_1().String())
	return code, d.detector.ComputeLanguageConfidence(text, lang), nil
}

// sample truncates text to maxSampleRunes on a rune boundary.
func sample(text string) string {
	if utf8.RuneCountInString(text) <= maxSampleRunes {
		return text
	}
	n := 0
	for i := range text {
		if n == maxSampleRunes {
			return text[:i]
		}
		n++
	}
	return text
}
