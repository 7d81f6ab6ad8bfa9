package leaderboardqueue

import "time"

// ReportQueue is the dedicated River queue for report jobs.
const ReportQueue = "report"

// WeeklyReportJob runs the weekly report sweep for the week containing ReportAt.
// ReportAt is fixed when the job is enqueued so retries report the same week.
type WeeklyReportJob struct {
	ReportAt time.Time `json:"report_at"`
}

// Kind returns the job type identifier for River
func (WeeklyReportJob) Kind() string { return "weekly_report" }
