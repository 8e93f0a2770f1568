package picklist

import "errors"

// Sentinel errors for the pick-list core. Handlers map these to API error
// codes with errors.Is; messages carry the offending identifier so a shop
// floor operator can see exactly what failed to resolve.
var (
	// ErrValidation marks user-correctable bad input (empty job name, no
	// items, quantity outside 0..target).
	ErrValidation = errors.New("validation failed")

	// ErrJobNotFound means the job id or name did not resolve.
	ErrJobNotFound = errors.New("job not found")

	// ErrItemNotFound means a scanned text or item name matched no item in
	// the job. No partial matching: near misses are reported, never guessed.
	ErrItemNotFound = errors.New("item not found")

	// ErrDataIntegrity signals a stored-state invariant violation (two items
	// in one job normalizing to the same name). Not user-correctable.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrStorage wraps durable-store failures. Fatal to the triggering call;
	// the per-job lock keeps other jobs' state untouched.
	ErrStorage = errors.New("storage error")
)

// Matcher-internal results, translated by the processor before they reach
// callers: no match becomes ErrItemNotFound, ambiguity becomes
// ErrDataIntegrity.
var (
	ErrNoMatch        = errors.New("no matching item")
	ErrAmbiguousMatch = errors.New("ambiguous match")
)
