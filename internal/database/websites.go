package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/policycrawl/internal/model"
)

// InsertWebsite records a language classification.
func (s *ResultStore) InsertWebsite(ctx context.Context, w *model.Website) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO websites (url, language, confidence, detected_at) VALUES (?, ?, ?, ?)`,
		strings.ToLower(w.URL),
		strings.ToLower(w.Language),
		w.Confidence,
		formatTimestamp(w.DetectedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert website %s: %w", w.URL, err)
	}
	return nil
}

// WebsitesByLanguage returns the websites classified as any of codes,
// in insertion order with duplicates removed (the first record wins).
func (s *ResultStore) WebsitesByLanguage(ctx context.Context, codes ...string) ([]*model.Website, error) {
	if len(codes) == 0 {
		return []*model.Website{}, nil
	}

	placeholders := make([]string, len(codes))
	args := make([]any, len(codes))
	for i, c := range codes {
		placeholders[i] = "?"
		args[i] = strings.ToLower(c)
	}

	query := `SELECT url, language, confidence, detected_at FROM websites
		WHERE language IN (` + strings.Join(placeholders, ", ") + `) ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query websites: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	websites := make([]*model.Website, 0)
	for rows.Next() {
		var w model.Website
		var detectedAt string
		if err := rows.Scan(&w.URL, &w.Language, &w.Confidence, &detectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan website: %w", err)
		}
		if seen[w.URL] {
			continue
		}
		seen[w.URL] = true
		w.DetectedAt = parseTimestamp(detectedAt)
		websites = append(websites, &w)
	}
	return websites, rows.Err()
}

// ClassifiedURLs returns the set of URLs present in the websites table.
func (s *ResultStore) ClassifiedURLs(ctx context.Context) (map[string]bool, error) {
	return s.urlSet(ctx, `SELECT DISTINCT url FROM websites`)
}

// InsertClassifyError records a domain whose classification failed.
func (s *ResultStore) InsertClassifyError(ctx context.Context, url, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO classify_errors (url, reason, occurred_at) VALUES (?, ?, ?)`,
		strings.ToLower(url), reason, formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert classify error for %s: %w", url, err)
	}
	return nil
}

// ClassifyErrorURLs returns the set of URLs that failed classification.
func (s *ResultStore) ClassifyErrorURLs(ctx context.Context) (map[string]bool, error) {
	return s.urlSet(ctx, `SELECT DISTINCT url FROM classify_errors`)
}

func (s *ResultStore) urlSet(ctx context.Context, query string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query urls: %w", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		set[u] = true
	}
	return set, rows.Err()
}
