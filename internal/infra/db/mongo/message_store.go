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
	domainmessages "tradehub/internal/domain/messages"
	domainuser "tradehub/internal/domain/user"
)

// MessageStore persists the append-only message log in the "messages"
// collection.
type MessageStore struct {
	col *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{col: db.Collection("messages")}
}

func (s *MessageStore) Insert(ctx context.Context, msg *domainmessages.Message) error {
	if _, err := s.col.InsertOne(ctx, newMessageDocument(msg)); err != nil {
		return fmt.Errorf("mongo: insert message: %w", err)
	}
	return nil
}

func (s *MessageStore) ByID(ctx context.Context, id domainmessages.MessageID) (*domainmessages.Message, error) {
	var doc messageDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainmessages.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find message: %w", err)
	}
	return doc.toMessage(), nil
}

func (s *MessageStore) ListByJob(ctx context.Context, jobID domainjobs.JobID, participant domainuser.ID, skip, limit int) ([]*domainmessages.Message, error) {
	filter := threadFilter(jobID, participant)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if skip > 0 {
		opts = opts.SetSkip(int64(skip))
	}
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list messages: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]*domainmessages.Message, 0)
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode message: %w", err)
		}
		out = append(out, doc.toMessage())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: list messages: %w", err)
	}
	return out, nil
}

func (s *MessageStore) CountByJob(ctx context.Context, jobID domainjobs.JobID) (int64, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{"job_id": string(jobID)})
	if err != nil {
		return 0, fmt.Errorf("mongo: count messages: %w", err)
	}
	return count, nil
}

func (s *MessageStore) LatestInThread(ctx context.Context, jobID domainjobs.JobID, participant domainuser.ID) (*domainmessages.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var doc messageDocument
	if err := s.col.FindOne(ctx, threadFilter(jobID, participant), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainmessages.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: latest message: %w", err)
	}
	return doc.toMessage(), nil
}

func (s *MessageStore) CountUnread(ctx context.Context, recipient domainuser.ID) (int64, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{"recipient_id": string(recipient), "read_at": nil})
	if err != nil {
		return 0, fmt.Errorf("mongo: count unread: %w", err)
	}
	return count, nil
}

func (s *MessageStore) CountUnreadInJob(ctx context.Context, jobID domainjobs.JobID, recipient domainuser.ID) (int64, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{
		"job_id":       string(jobID),
		"recipient_id": string(recipient),
		"read_at":      nil,
	})
	if err != nil {
		return 0, fmt.Errorf("mongo: count unread in job: %w", err)
	}
	return count, nil
}

// MarkRead performs the read transition as one conditional update: only a
// document whose read_at is still null matches, so concurrent calls cannot
// produce two different read timestamps.
func (s *MessageStore) MarkRead(ctx context.Context, id domainmessages.MessageID, at time.Time) (bool, error) {
	read := at.UTC()
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": string(id), "read_at": nil},
		bson.M{"$set": bson.M{
			"status":     string(domainmessages.StatusRead),
			"read_at":    read,
			"updated_at": read,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("mongo: mark read: %w", err)
	}
	if res.MatchedCount > 0 {
		return false, nil
	}

	// No match: either the message does not exist or it was read before.
	count, err := s.col.CountDocuments(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return false, fmt.Errorf("mongo: mark read lookup: %w", err)
	}
	if count == 0 {
		return false, domainmessages.ErrNotFound
	}
	return true, nil
}

func (s *MessageStore) ThreadsFor(ctx context.Context, participant domainuser.ID) ([]domainmessages.ThreadActivity, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"sender_id": string(participant)},
			bson.M{"recipient_id": string(participant)},
		}}}},
		{{Key: "$group", Value: bson.M{
			"_id":             "$job_id",
			"last_message_at": bson.M{"$max": "$created_at"},
			"message_count":   bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"last_message_at": -1}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo: aggregate threads: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]domainmessages.ThreadActivity, 0)
	for cursor.Next(ctx) {
		var row struct {
			JobID         string    `bson:"_id"`
			LastMessageAt time.Time `bson:"last_message_at"`
			MessageCount  int64     `bson:"message_count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongo: decode thread row: %w", err)
		}
		out = append(out, domainmessages.ThreadActivity{
			JobID:         domainjobs.JobID(row.JobID),
			LastMessageAt: row.LastMessageAt.UTC(),
			MessageCount:  row.MessageCount,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: aggregate threads: %w", err)
	}
	return out, nil
}

func threadFilter(jobID domainjobs.JobID, participant domainuser.ID) bson.M {
	return bson.M{
		"job_id": string(jobID),
		"$or": bson.A{
			bson.M{"sender_id": string(participant)},
			bson.M{"recipient_id": string(participant)},
		},
	}
}

type messageDocument struct {
	ID            string     `bson:"_id"`
	JobID         string     `bson:"job_id"`
	SenderID      string     `bson:"sender_id"`
	RecipientID   string     `bson:"recipient_id"`
	Content       string     `bson:"content"`
	MessageType   string     `bson:"message_type"`
	ImageURL      string     `bson:"image_url,omitempty"`
	ImageFilename string     `bson:"image_filename,omitempty"`
	Status        string     `bson:"status"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
	ReadAt        *time.Time `bson:"read_at"`
}

func newMessageDocument(m *domainmessages.Message) messageDocument {
	doc := messageDocument{
		ID:            string(m.ID),
		JobID:         string(m.JobID),
		SenderID:      string(m.SenderID),
		RecipientID:   string(m.RecipientID),
		Content:       m.Content,
		MessageType:   string(m.Type),
		ImageURL:      m.ImageURL,
		ImageFilename: m.ImageFilename,
		Status:        string(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.ReadAt != nil {
		readAt := m.ReadAt.UTC()
		doc.ReadAt = &readAt
	}
	return doc
}

func (d messageDocument) toMessage() *domainmessages.Message {
	msg := &domainmessages.Message{
		ID:            domainmessages.MessageID(d.ID),
		JobID:         domainjobs.JobID(d.JobID),
		SenderID:      domainuser.ID(d.SenderID),
		RecipientID:   domainuser.ID(d.RecipientID),
		Content:       d.Content,
		Type:          domainmessages.Type(d.MessageType),
		ImageURL:      d.ImageURL,
		ImageFilename: d.ImageFilename,
		Status:        domainmessages.Status(d.Status),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if d.ReadAt != nil {
		readAt := d.ReadAt.UTC()
		msg.ReadAt = &readAt
	}
	return msg
}

var _ domainmessages.Store = (*MessageStore)(nil)
