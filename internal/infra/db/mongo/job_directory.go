package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainjobs "tradehub/internal/domain/jobs"
	domainuser "tradehub/internal/domain/user"
)

// JobDirectory reads jobs and quotes from the collections the marketplace
// service maintains. The messaging core never writes here.
type JobDirectory struct {
	jobs   *mongo.Collection
	quotes *mongo.Collection
}

func NewJobDirectory(db *mongo.Database) *JobDirectory {
	return &JobDirectory{
		jobs:   db.Collection("jobs"),
		quotes: db.Collection("quotes"),
	}
}

func (d *JobDirectory) ByID(ctx context.Context, id domainjobs.JobID) (*domainjobs.Job, error) {
	var doc jobDocument
	if err := d.jobs.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainjobs.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find job: %w", err)
	}
	return doc.toJob(), nil
}

func (d *JobDirectory) QuotesByJob(ctx context.Context, id domainjobs.JobID) ([]domainjobs.Quote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := d.quotes.Find(ctx, bson.M{"job_id": string(id)}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list quotes: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]domainjobs.Quote, 0)
	for cursor.Next(ctx) {
		var doc quoteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode quote: %w", err)
		}
		out = append(out, doc.toQuote())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: list quotes: %w", err)
	}
	return out, nil
}

type jobDocument struct {
	ID        string            `bson:"_id"`
	Title     string            `bson:"title"`
	Category  string            `bson:"category"`
	Location  string            `bson:"location"`
	Homeowner homeownerDocument `bson:"homeowner"`
	CreatedAt time.Time         `bson:"created_at"`
}

type homeownerDocument struct {
	Name  string `bson:"name"`
	Email string `bson:"email"`
	Phone string `bson:"phone"`
}

func (d jobDocument) toJob() *domainjobs.Job {
	return &domainjobs.Job{
		ID:       domainjobs.JobID(d.ID),
		Title:    d.Title,
		Category: d.Category,
		Location: d.Location,
		Homeowner: domainjobs.Homeowner{
			Name:  d.Homeowner.Name,
			Email: d.Homeowner.Email,
			Phone: d.Homeowner.Phone,
		},
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type quoteDocument struct {
	ID             string    `bson:"_id"`
	JobID          string    `bson:"job_id"`
	TradespersonID string    `bson:"tradesperson_id"`
	Status         string    `bson:"status"`
	CreatedAt      time.Time `bson:"created_at"`
}

func (d quoteDocument) toQuote() domainjobs.Quote {
	return domainjobs.Quote{
		ID:             d.ID,
		JobID:          domainjobs.JobID(d.JobID),
		TradespersonID: domainuser.ID(d.TradespersonID),
		Status:         d.Status,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}

var _ domainjobs.Directory = (*JobDirectory)(nil)
