package memory

import (
	"context"
	"sync"

	domainjobs "tradehub/internal/domain/jobs"
)

// JobDirectory is an in-memory stand-in for the job service used by tests
// and demo mode.
type JobDirectory struct {
	mu     sync.RWMutex
	jobs   map[domainjobs.JobID]*domainjobs.Job
	quotes map[domainjobs.JobID][]domainjobs.Quote
}

func NewJobDirectory() *JobDirectory {
	return &JobDirectory{
		jobs:   make(map[domainjobs.JobID]*domainjobs.Job),
		quotes: make(map[domainjobs.JobID][]domainjobs.Quote),
	}
}

func (d *JobDirectory) ByID(ctx context.Context, id domainjobs.JobID) (*domainjobs.Job, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	job, ok := d.jobs[id]
	if !ok {
		return nil, domainjobs.ErrNotFound
	}
	copyJob := *job
	return &copyJob, nil
}

func (d *JobDirectory) QuotesByJob(ctx context.Context, id domainjobs.JobID) ([]domainjobs.Quote, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.jobs[id]; !ok {
		return nil, domainjobs.ErrNotFound
	}
	return append([]domainjobs.Quote(nil), d.quotes[id]...), nil
}

func (d *JobDirectory) AddJob(job *domainjobs.Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copyJob := *job
	d.jobs[job.ID] = &copyJob
}

func (d *JobDirectory) AddQuote(quote domainjobs.Quote) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quotes[quote.JobID] = append(d.quotes[quote.JobID], quote)
}

var _ domainjobs.Directory = (*JobDirectory)(nil)
