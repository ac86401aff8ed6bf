package jobs

import (
	"context"
	"errors"
	"time"

	"tradehub/internal/domain/user"
)

var ErrNotFound = errors.New("jobs: not found")

type JobID string

// Homeowner is the contact block embedded in a job document. The homeowner
// is identified by email; job ownership checks compare against it.
type Homeowner struct {
	Name  string
	Email string
	Phone string
}

// Job is a homeowner's posted task. Jobs are owned by the job directory,
// an external collaborator; the messaging core only reads them.
type Job struct {
	ID        JobID
	Title     string
	Category  string
	Location  string
	Homeowner Homeowner
	CreatedAt time.Time
}

// Quote is a tradesperson's bid on a job. Having submitted one grants the
// tradesperson messaging rights on that job's thread.
type Quote struct {
	ID             string
	JobID          JobID
	TradespersonID user.ID
	Status         string
	CreatedAt      time.Time
}

// Directory resolves jobs and their quotes.
type Directory interface {
	ByID(ctx context.Context, id JobID) (*Job, error)
	QuotesByJob(ctx context.Context, id JobID) ([]Quote, error)
}

// OwnedBy reports whether the given account email matches the job's
// recorded homeowner email.
func (j *Job) OwnedBy(email string) bool {
	return user.NormalizeEmail(email) != "" &&
		user.NormalizeEmail(email) == user.NormalizeEmail(j.Homeowner.Email)
}
