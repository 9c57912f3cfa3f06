package supervisor

import (
	"fmt"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	compactLayout = "20060102"
)

// ResolveTaskID derives the deterministic task id for a date-range job.
// The id doubles as the artifact filename stem, which is what lets completion
// state be reconstructed from the filesystem after a restart.
//
// Equal bounds yield "<prefix>_<date>"; distinct bounds yield
// "<prefix>_<start>_<end>" so that single-day and range requests never
// collide.
func ResolveTaskID(prefix, startDate, endDate string) (string, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return "", fmt.Errorf("%w: start date %q must be YYYY-MM-DD", ErrInvalidParameters, startDate)
	}

	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return "", fmt.Errorf("%w: end date %q must be YYYY-MM-DD", ErrInvalidParameters, endDate)
	}

	if end.Before(start) {
		return "", fmt.Errorf("%w: end date %s precedes start date %s", ErrInvalidParameters, endDate, startDate)
	}

	startCompact := start.Format(compactLayout)
	endCompact := end.Format(compactLayout)

	if startCompact == endCompact {
		return fmt.Sprintf("%s_%s", prefix, startCompact), nil
	}
	return fmt.Sprintf("%s_%s_%s", prefix, startCompact, endCompact), nil
}
