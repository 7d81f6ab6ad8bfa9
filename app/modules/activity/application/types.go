package activityservice

import (
	"time"

	activityevents "github.com/Black-And-White-Club/stride-bot/app/events/activity"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/google/uuid"
)

// RecordResult is returned after a distance entry is appended. Duplicate is
// set when the record id was already stored and nothing was appended.
type RecordResult struct {
	Distance      float64
	WeeklyTotal   float64
	LifetimeTotal float64
	Duplicate     bool
}

// recordNamespace derives record ids from request ids that are not uuids.
var recordNamespace = uuid.MustParse("6b1f0d62-3c55-4c1e-9a57-0f3f3f4b8f21")

// RecordKey maps a request or message id to a record id. The same id always
// maps to the same key; "" maps to uuid.Nil.
func RecordKey(id string) uuid.UUID {
	if id == "" {
		return uuid.Nil
	}
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed
	}
	return uuid.NewSHA1(recordNamespace, []byte(id))
}

// DailyTotal is the summed distance of one calendar date.
type DailyTotal struct {
	Date  time.Time
	Total float64
}

// DailyTotalsV1 converts a breakdown to its wire form.
func DailyTotalsV1(days []DailyTotal) []activityevents.DailyTotalV1 {
	out := make([]activityevents.DailyTotalV1, 0, len(days))
	for _, d := range days {
		out = append(out, activityevents.DailyTotalV1{
			Date:  d.Date.Format(calendar.DateLayout),
			Total: d.Total,
		})
	}
	return out
}

// Stats are the aggregates shown to a user.
type Stats struct {
	UserID         int64
	DisplayName    *string
	WeeklyTotal    float64
	MonthlyTotal   float64
	LifetimeTotal  float64
	Week           calendar.Window
	DailyBreakdown []DailyTotal
	JoinedDate     time.Time
}
