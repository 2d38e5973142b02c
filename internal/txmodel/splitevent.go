package txmodel

import "time"

// SplitEvent is one corporate-action stock split:
// (ProductID, CutOff, Numerator, Denominator) per spec.md §3. It applies
// to every transaction of ProductID whose Time.Date() is before CutOff.
// Ported from original_source/corporate_action.py's split-table rows.
type SplitEvent struct {
	ProductID   string
	CutOff      time.Time
	Numerator   int
	Denominator int
}
