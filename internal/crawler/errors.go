package crawler

import "errors"

// errEmptyDomain is reported as the seed error of a task with no domain.
var errEmptyDomain = errors.New("empty domain")
