package library

import "time"

// LateFeePerDay is the flat daily penalty charged on overdue books.
const LateFeePerDay int64 = 50

// LateFee computes the penalty owed on a book due at due as of now.
// Days late are counted from the due timestamp and rounded up, so even
// one second past due charges a full day. Books not yet due owe zero.
func LateFee(due, now time.Time) int64 {
	if !now.After(due) {
		return 0
	}
	elapsed := now.Sub(due)
	daysLate := int64(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) != 0 {
		daysLate++
	}
	return daysLate * LateFeePerDay
}
