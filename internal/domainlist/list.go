package domainlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/policycrawl/internal/crawler"
)

// ErrEmptyList is returned when a list yields no usable domain.
var ErrEmptyList = errors.New("domain list is empty")

// Load reads a domain list file. See Parse for the accepted formats.
func Load(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied list path
	if err != nil {
		return nil, fmt.Errorf("failed to open domain list: %w", err)
	}
	defer f.Close()

	domains, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return domains, nil
}

// Parse reads domains from r. The column is chosen from the first record:
// a "domain" or "url" header selects that column, a numeric first field
// means a headerless rank,domain file, anything else is a plain list.
// Entries are normalized to bare lowercase hosts and deduplicated in order.
func Parse(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse domain list: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyList
	}

	column, skipHeader := detectColumn(records[0])
	if skipHeader {
		records = records[1:]
	}

	seen := make(map[string]bool)
	domains := make([]string, 0, len(records))
	for _, rec := range records {
		if column >= len(rec) {
			continue
		}
		d := crawler.NormalizeDomain(rec[column])
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		domains = append(domains, d)
	}

	if len(domains) == 0 {
		return nil, ErrEmptyList
	}
	return domains, nil
}

// detectColumn picks the domain column from the first record and reports
// whether that record is a header.
func detectColumn(first []string) (column int, header bool) {
	for i, field := range first {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(field, "\ufeff"))) {
		case "domain", "url":
			return i, true
		}
	}

	if len(first) >= 2 {
		if _, err := strconv.Atoi(strings.TrimSpace(first[0])); err == nil {
			return 1, false
		}
	}
	return 0, false
}

// Remaining returns the candidates not present in processed, keeping order.
func Remaining(candidates []string, processed map[string]bool) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if processed[strings.ToLower(c)] {
			continue
		}
		out = append(out, c)
	}
	return out
}
