package messages

import (
	"context"
	"errors"

	domainjobs "tradehub/internal/domain/jobs"
	domainuser "tradehub/internal/domain/user"
)

var (
	// ErrNotParticipant means the caller is authenticated but is neither
	// the job's homeowner nor a tradesperson who quoted on it. Kept
	// distinct from not-found so authorization failures do not leak
	// resource existence beyond what the job lookup already revealed.
	ErrNotParticipant = errors.New("messages: caller is not a conversation participant")

	// ErrNotRecipient means the caller tried to mark a message read that
	// was not addressed to them.
	ErrNotRecipient = errors.New("messages: caller is not the message recipient")
)

// ParticipantKind tells which side of a job's conversation a user is on.
type ParticipantKind string

const (
	ParticipantHomeowner    ParticipantKind = "homeowner"
	ParticipantTradesperson ParticipantKind = "tradesperson"
)

// Participant is the caller's resolved capability on a job thread. It is
// computed once per request from directory state and then branched on,
// instead of re-deriving ownership from email comparisons at every site.
type Participant struct {
	Kind ParticipantKind
	User *domainuser.User
	Job  *domainjobs.Job
}

// resolveParticipant decides whether the caller may act on the job's
// conversation. The caller qualifies as homeowner when their account email
// matches the job's recorded homeowner email, or as tradesperson when they
// hold that role and have at least one quote against the job. Lookup
// failures fail closed: a missing job is jobs.ErrNotFound, an entitled-less
// caller is ErrNotParticipant.
func (s *Service) resolveParticipant(ctx context.Context, jobID domainjobs.JobID, caller *domainuser.User) (Participant, error) {
	job, err := s.Jobs.ByID(ctx, jobID)
	if err != nil {
		return Participant{}, err
	}

	if job.OwnedBy(caller.Email) {
		return Participant{Kind: ParticipantHomeowner, User: caller, Job: job}, nil
	}

	if caller.Is(domainuser.RoleTradesperson) {
		quotes, err := s.Jobs.QuotesByJob(ctx, job.ID)
		if err != nil {
			return Participant{}, err
		}
		for _, quote := range quotes {
			if quote.TradespersonID == caller.ID {
				return Participant{Kind: ParticipantTradesperson, User: caller, Job: job}, nil
			}
		}
	}

	return Participant{}, ErrNotParticipant
}
