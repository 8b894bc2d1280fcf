package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/policycrawl/internal/model"
)

// InsertResult appends a crawl result and returns its row id.
// The result's ID field is updated on success.
func (s *ResultStore) InsertResult(ctx context.Context, result *model.CrawlResult) (int64, error) {
	if result == nil {
		return 0, errors.New("nil crawl result")
	}

	homeJSON, err := marshalLinks(result.HomeLinks)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize home links: %w", err)
	}
	allJSON, err := marshalLinks(result.AllLinks)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize all links: %w", err)
	}
	policyJSON, err := marshalLinks(result.PolicyLinks)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize policy links: %w", err)
	}

	query := `
	INSERT INTO policy_links (run_id, domain, country, scheme, status, home_links, all_links,
		policy_links, pages_fetched, budget_exceeded, processed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		result.RunID,
		strings.ToLower(result.Domain),
		result.Country,
		result.Scheme,
		result.Status.String(),
		homeJSON,
		allJSON,
		policyJSON,
		result.PagesFetched,
		boolToInt(result.BudgetExceeded),
		formatTimestamp(result.ProcessedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl result for %s: %w", result.Domain, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	result.ID = id
	return id, nil
}

// ProcessedDomains returns the set of domains that already have a result
// for country. Failed results count as processed; rerun them explicitly.
func (s *ResultStore) ProcessedDomains(ctx context.Context, country string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT domain FROM policy_links WHERE country = ?`, country)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed domains: %w", err)
	}
	defer rows.Close()

	processed := make(map[string]bool)
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		processed[strings.ToLower(domain)] = true
	}
	return processed, rows.Err()
}

const resultColumns = `id, run_id, domain, country, scheme, status, home_links, all_links,
	policy_links, pages_fetched, budget_exceeded, processed_at`

// ListResults returns every stored result for country, oldest first.
// An empty country lists all results.
func (s *ResultStore) ListResults(ctx context.Context, country string) ([]*model.CrawlResult, error) {
	query := `SELECT ` + resultColumns + ` FROM policy_links`
	var args []any
	if country != "" {
		query += ` WHERE country = ?`
		args = append(args, country)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]*model.CrawlResult, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// LatestResult returns the most recent result for domain, or ErrNotFound.
func (s *ResultStore) LatestResult(ctx context.Context, domain string) (*model.CrawlResult, error) {
	query := `SELECT ` + resultColumns + ` FROM policy_links WHERE domain = ? ORDER BY id DESC LIMIT 1`

	r, err := scanResult(s.db.QueryRowContext(ctx, query, strings.ToLower(domain)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no result for %s: %w", domain, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CountResults returns the number of stored results for country.
// An empty country counts all results.
func (s *ResultStore) CountResults(ctx context.Context, country string) (int, error) {
	query := `SELECT COUNT(*) FROM policy_links`
	var args []any
	if country != "" {
		query += ` WHERE country = ?`
		args = append(args, country)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*model.CrawlResult, error) {
	var (
		r                             model.CrawlResult
		status, processedAt           string
		homeJSON, allJSON, policyJSON string
		budgetExceeded                int
	)

	err := row.Scan(
		&r.ID,
		&r.RunID,
		&r.Domain,
		&r.Country,
		&r.Scheme,
		&status,
		&homeJSON,
		&allJSON,
		&policyJSON,
		&r.PagesFetched,
		&budgetExceeded,
		&processedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan crawl result: %w", err)
	}

	if r.HomeLinks, err = unmarshalLinks(homeJSON); err != nil {
		return nil, fmt.Errorf("failed to parse home links of %s: %w", r.Domain, err)
	}
	if r.AllLinks, err = unmarshalLinks(allJSON); err != nil {
		return nil, fmt.Errorf("failed to parse all links of %s: %w", r.Domain, err)
	}
	if r.PolicyLinks, err = unmarshalLinks(policyJSON); err != nil {
		return nil, fmt.Errorf("failed to parse policy links of %s: %w", r.Domain, err)
	}

	r.Status = model.ParseCrawlStatus(status)
	r.BudgetExceeded = budgetExceeded != 0
	r.ProcessedAt = parseTimestamp(processedAt)

	return &r, nil
}

func marshalLinks(links []string) (string, error) {
	if links == nil {
		links = []string{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalLinks(s string) ([]string, error) {
	links := make([]string, 0)
	if s == "" {
		return links, nil
	}
	if err := json.Unmarshal([]byte(s), &links); err != nil {
		return nil, err
	}
	return links, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
