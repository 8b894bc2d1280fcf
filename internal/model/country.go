package model

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
)

// ErrUnknownLanguage is returned when a language code has no corpus country.
var ErrUnknownLanguage = errors.New("unknown language code")

// countryByBase maps a base language to the country label stored with
// crawl results. Chinese variants share one label.
var countryByBase = map[string]string{
	"ko": "Korea",
	"zh": "China",
	"ja": "Japan",
	"en": "English",
}

// CountryForLanguage returns the country label for a language code such as
// "ko", "zh-cn", "zh-TW" or "ja".
func CountryForLanguage(code string) (string, error) {
	base, err := BaseLanguage(code)
	if err != nil {
		return "", err
	}
	country, ok := countryByBase[base]
	if !ok {
		return "", ErrUnknownLanguage
	}
	return country, nil
}

// BaseLanguage canonicalizes a language code to its ISO 639-1 base
// ("zh-cn" -> "zh").
func BaseLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrUnknownLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", ErrUnknownLanguage
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// LanguageCodesFor returns the stored language codes that belong to the same
// country as code. The classifier stores "zh-cn" and "zh" for Chinese pages,
// so both must be queried.
func LanguageCodesFor(code string) []string {
	base, err := BaseLanguage(code)
	if err != nil {
		return []string{strings.ToLower(strings.TrimSpace(code))}
	}
	if base == "zh" {
		return []string{"zh", "zh-cn", "zh-tw"}
	}
	return []string{base}
}
