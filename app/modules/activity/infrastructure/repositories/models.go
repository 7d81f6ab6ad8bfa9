package activitydb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is a runner known to the ledger. LifetimeTotal is kept in step with
// the sum of the user's records inside the recording transaction.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	UserID        int64     `bun:"user_id,pk"`
	DisplayName   *string   `bun:"display_name,type:varchar(255)"`
	JoinedDate    time.Time `bun:"joined_date,notnull,type:date"`
	LifetimeTotal float64   `bun:"lifetime_total,notnull,default:0,type:double precision"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ActivityRecord is one immutable distance entry.
type ActivityRecord struct {
	bun.BaseModel `bun:"table:activity_records,alias:ar"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UUID          uuid.UUID `bun:"uuid,type:uuid,notnull,unique"`
	UserID        int64     `bun:"user_id,notnull"`
	ActivityDate  time.Time `bun:"activity_date,notnull,type:date"`
	Distance      float64   `bun:"distance,notnull,type:double precision"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

var _ bun.BeforeAppendModelHook = (*ActivityRecord)(nil)

// BeforeAppendModel assigns the public identifier on insert.
func (r *ActivityRecord) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if r.UUID == uuid.Nil {
			r.UUID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

// DailyTotal is the summed distance of one date.
type DailyTotal struct {
	Day   time.Time `bun:"day"`
	Total float64   `bun:"total"`
}

// CivilDate maps the calendar day of t to UTC midnight, the form in which
// dates are written to and read from date columns.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
