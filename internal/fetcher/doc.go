// Package fetcher performs the HTTP GETs issued by the crawler and the
// language classifier.
//
// Every request carries a User-Agent drawn at random from a pool, is bounded
// by a per-request timeout and reads at most a fixed number of body bytes.
// Bodies are decoded to UTF-8 using the declared or sniffed charset, since a
// large share of Korean, Chinese and Japanese sites still serve EUC-KR, GBK
// or Shift_JIS.
//
// Failures are returned as *FetchError with a Kind (timeout, DNS,
// connection refused, non-2xx status) so callers can log them by category.
// None of them are fatal to a crawl.
package fetcher
