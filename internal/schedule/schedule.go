// Package schedule computes missed/next run times for a
// spec.snapshots.schedule cron expression, adapted from the teacher's
// CronJob-style scheduling helper.
package schedule

import (
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// MaxMissedRuns bounds how many missed runs NextRun will walk
// through before giving up, guarding against a wedged controller or wild
// clock skew eating CPU trying to enumerate decades of missed runs.
const MaxMissedRuns = 100

// NextRun reports the most recent missed run (zero if none) and the next
// scheduled run for expr, given the last time a run was actually
// dispatched (zero if never) and the resource's creation time as a
// fallback anchor.
func NextRun(expr string, lastRun, creationTime time.Time, startingDeadline *int64) (missed, next time.Time, err error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(err, "unparseable schedule %q", expr)
	}

	now := time.Now()

	earliest := creationTime
	if !lastRun.IsZero() {
		earliest = lastRun
	}

	if startingDeadline != nil {
		deadline := now.Add(-time.Second * time.Duration(*startingDeadline))
		if deadline.After(earliest) {
			earliest = deadline
		}
	}

	if earliest.After(now) {
		return time.Time{}, sched.Next(now), nil
	}

	walked := 0
	for t := sched.Next(earliest); !t.After(now); t = sched.Next(t) {
		missed = t
		walked++
		if walked > MaxMissedRuns {
			return time.Time{}, time.Time{}, errors.New("too many missed runs (>100); check schedule or clock skew")
		}
	}

	return missed, sched.Next(now), nil
}

// IsTooLate reports whether a missed run at missed is past its deadline
// and should be skipped rather than executed late.
func IsTooLate(missed time.Time, startingDeadline *int64) bool {
	if missed.IsZero() || startingDeadline == nil {
		return false
	}
	return missed.Add(time.Duration(*startingDeadline) * time.Second).Before(time.Now())
}

// ValidateExpr reports whether expr parses as a standard 5-field cron
// expression, so a malformed spec.snapshots.schedule is rejected at
// validation time instead of surfacing only when a CronJob fails to render.
func ValidateExpr(expr string) error {
	_, err := cron.ParseStandard(expr)
	if err != nil {
		return errors.Wrapf(err, "invalid schedule %q", expr)
	}
	return nil
}
