package model

import "time"

// Website is the language classification of one candidate domain.
type Website struct {
	// URL is the domain as it appeared in the input list.
	URL string `json:"url"`

	// Language is the ISO 639-1 code of the detected language.
	Language string `json:"language"`

	// Confidence is the detector's confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// DetectedAt is when the classification was made.
	DetectedAt time.Time `json:"timestamp"`
}
