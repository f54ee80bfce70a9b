package eligibility

import (
	"errors"
	"fmt"
	"time"
)

// LastSpinDateKey is the single store key holding the last spin date.
const LastSpinDateKey = "lastSpinDate"

// DateLayout is the persisted calendar date format.
const DateLayout = "2006-01-02"

var (
	ErrAlreadySpunToday = errors.New("already spun today")
	ErrStoreUnavailable = errors.New("eligibility store unavailable")
)

// Gate allows one spin per local calendar day.
type Gate struct {
	store Store
	loc   *time.Location
}

// NewGate builds a gate over store; a nil loc means time.Local.
func NewGate(store Store, loc *time.Location) *Gate {
	if loc == nil {
		loc = time.Local
	}
	return &Gate{store: store, loc: loc}
}

// Location returns the zone calendar dates are computed in.
func (g *Gate) Location() *time.Location {
	return g.loc
}

// DateString formats t as YYYY-MM-DD in loc.
func DateString(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// CheckEligible reports whether a spin may start at now. A store read failure fails open: the
// result is true and the returned error wraps ErrStoreUnavailable.
func (g *Gate) CheckEligible(now time.Time) (bool, error) {
	last, ok, err := g.store.Get(LastSpinDateKey)
	if err != nil {
		return true, fmt.Errorf("%w: failed to read %s: %v", ErrStoreUnavailable, LastSpinDateKey, err)
	}
	if !ok {
		return true, nil
	}
	return last != DateString(now, g.loc), nil
}

// LastSpinDate returns the persisted date, or "" when none.
func (g *Gate) LastSpinDate() (string, error) {
	last, ok, err := g.store.Get(LastSpinDateKey)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", ErrStoreUnavailable, LastSpinDateKey, err)
	}
	if !ok {
		return "", nil
	}
	return last, nil
}

// RecordSpin persists now's calendar date, overwriting any previous value.
func (g *Gate) RecordSpin(now time.Time) error {
	if err := g.store.Set(LastSpinDateKey, DateString(now, g.loc)); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrStoreUnavailable, LastSpinDateKey, err)
	}
	return nil
}

// Reset forgets the last spin date.
func (g *Gate) Reset() error {
	if err := g.store.Delete(LastSpinDateKey); err != nil {
		return fmt.Errorf("%w: failed to delete %s: %v", ErrStoreUnavailable, LastSpinDateKey, err)
	}
	return nil
}
