package stock

import "time"

// ExpiryStatus buckets a lot's days-to-expiry into a risk category
type ExpiryStatus string

const (
	ExpiryStatusExpired  ExpiryStatus = "expired"
	ExpiryStatusCritical ExpiryStatus = "critical" // 0-7 days
	ExpiryStatusWarning  ExpiryStatus = "warning"  // 8-30 days
	ExpiryStatusWatch    ExpiryStatus = "watch"    // 31-90 days
	ExpiryStatusOK       ExpiryStatus = "ok"       // more than 90 days
)

// DaysToExpire returns the whole calendar days from asOf to the expiry
// date. Negative when the expiry date is in the past.
func DaysToExpire(expiry, asOf time.Time) int {
	e := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	a := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(a).Hours() / 24)
}

// ClassifyExpiry maps days-to-expiry to a risk status
func ClassifyExpiry(expiry, asOf time.Time) ExpiryStatus {
	days := DaysToExpire(expiry, asOf)
	switch {
	case days < 0:
		return ExpiryStatusExpired
	case days <= 7:
		return ExpiryStatusCritical
	case days <= 30:
		return ExpiryStatusWarning
	case days <= 90:
		return ExpiryStatusWatch
	default:
		return ExpiryStatusOK
	}
}

// Classify returns the expiry risk status of a lot as of the given date
func Classify(lot *Lot, asOf time.Time) ExpiryStatus {
	return ClassifyExpiry(lot.ExpiryDate, asOf)
}
