// Package domainlist loads candidate domain lists and builds new ones.
//
// Supported inputs:
//   - CSV with a "domain" column (Cloudflare Radar exports)
//   - CSV with a "url" column (ahrefs top-sites exports, see WriteCSV)
//   - headerless "rank,domain" CSV (Tranco)
//   - a plain list with one domain per line
//
// ScrapeTop builds the ahrefs-style list from the public top-sites page.
package domainlist
