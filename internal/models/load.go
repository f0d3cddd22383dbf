// ABOUTME: LoadRecord model and the authoritative ACWR risk banding.
// ABOUTME: Thresholds: optimal <=1.3, caution <=1.5, danger above.
package models

import "time"

// LoadBand is the ACWR risk category.
type LoadBand string

const (
	LoadOptimal          LoadBand = "optimal"
	LoadCaution          LoadBand = "caution"
	LoadDanger           LoadBand = "danger"
	LoadInsufficientData LoadBand = "insufficient_data"
)

// ACWR thresholds.
const (
	ACWRUnderTraining = 0.8
	ACWRCautionMin    = 1.3
	ACWRDangerMin     = 1.5
)

// LoadBandFor returns the risk band for a ratio. A nil ratio means the
// ratio is undefined. Ratios below ACWRUnderTraining are still optimal for
// risk; callers that care about under-training inspect the ratio itself.
func LoadBandFor(ratio *float64) LoadBand {
	if ratio == nil {
		return LoadInsufficientData
	}
	switch r := *ratio; {
	case r > ACWRDangerMin:
		return LoadDanger
	case r > ACWRCautionMin:
		return LoadCaution
	default:
		return LoadOptimal
	}
}

// LoadRecord is the acute:chronic workload snapshot for an athlete and day.
type LoadRecord struct {
	AthleteID string    `json:"athlete_id"`
	Date      time.Time `json:"date"`
	DailyLoad *float64  `json:"daily_load"`
	Acute7d   *float64  `json:"acute_7d"`
	Chronic28 *float64  `json:"chronic_28d"`
	ACWR      *float64  `json:"acwr"`
	Band      LoadBand  `json:"band"`
}

// NewLoadRecord builds a record, computing the ratio and band from the
// rolling averages. A missing or zero chronic load leaves the ratio undefined.
func NewLoadRecord(athleteID string, date time.Time, daily, acute, chronic *float64) LoadRecord {
	rec := LoadRecord{
		AthleteID: athleteID,
		Date:      Day(date),
		DailyLoad: daily,
		Acute7d:   acute,
		Chronic28: chronic,
	}
	if acute != nil && chronic != nil && *chronic != 0 {
		ratio := *acute / *chronic
		rec.ACWR = &ratio
	}
	rec.Band = LoadBandFor(rec.ACWR)
	return rec
}

// UnderTrained reports whether the ratio is defined and below the
// under-training threshold.
func (l LoadRecord) UnderTrained() bool {
	return l.ACWR != nil && *l.ACWR < ACWRUnderTraining
}
