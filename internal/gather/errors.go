package gather

import "errors"

// Failure classes for the scraping pipeline. All of them are absorbed
// per-mall or per-source by the gatherer; only a failure during mall
// enumeration is fatal to a run.
var (
	// ErrSourceUnavailable: network/site unreachable.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrParse: the page no longer has the shape we expect — usually a
	// site redesign.
	ErrParse = errors.New("unexpected page structure")
	// ErrBrowserUnavailable: no usable headless browser runtime.
	ErrBrowserUnavailable = errors.New("browser runtime unavailable")
)
