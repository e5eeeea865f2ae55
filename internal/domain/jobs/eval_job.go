package jobs

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobTypeDailyEval    = "daily_eval"
	JobTypeIntradayEval = "intraday_eval"
)

const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// EvalJob is one leasable unit of evaluation work: one user, one target
// date. The (job_type, user_id, target_date) key makes enqueueing
// idempotent; LockedAt is the lease timestamp.
type EvalJob struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobType    string    `gorm:"column:job_type;not null;uniqueIndex:uq_eval_job_natural;index" json:"job_type"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_eval_job_natural;index" json:"user_id"`
	TargetDate time.Time `gorm:"column:target_date;type:date;not null;uniqueIndex:uq_eval_job_natural" json:"target_date"`

	Status    string     `gorm:"column:status;not null;default:queued;index" json:"status"`
	Attempts  int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LockedAt  *time.Time `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	LastError string     `gorm:"column:last_error;type:text" json:"last_error,omitempty"`
	// Detail carries benign terminal notes, e.g. "no definitions configured".
	Detail string `gorm:"column:detail" json:"detail,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (EvalJob) TableName() string { return "eval_job" }
