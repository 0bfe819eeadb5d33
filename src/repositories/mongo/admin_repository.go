// Package mongo implements the Credential Store on a MongoDB collection.
// Every session mutation is a single-document update, so concurrent logins
// for one username resolve as last-writer-wins without extra locking.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
)

// clearedBatchField marks the documents changed by one bulk clear
const clearedBatchField = "session_cleared_batch"

// AdminRepository stores admin accounts as documents keyed by username
type AdminRepository struct {
	coll *mongodriver.Collection
}

// NewAdminRepository wraps the admin users collection.
// The collection must carry the unique username index created by database.NewMongo.
func NewAdminRepository(coll *mongodriver.Collection) *AdminRepository {
	return &AdminRepository{coll: coll}
}

// hasSession matches documents whose session id is set
var hasSession = bson.M{"$type": "string"}

func (r *AdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	if _, err := r.coll.InsertOne(ctx, admin); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return repositories.ErrAlreadyExists
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &admin, nil
}

func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

func (r *AdminRepository) SetActive(ctx context.Context, username string, active bool) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *AdminRepository) SetActiveSession(ctx context.Context, username, sessionID string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"username": username, "is_active": true},
		bson.M{"$set": bson.M{
			"active_session_id": sessionID,
			"last_login_at":     at,
			"updated_at":        at,
		}},
	)
	if err != nil {
		return fmt.Errorf("set active session: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *AdminRepository) ClearActiveSession(ctx context.Context, username, sessionID string) (bool, error) {
	filter := bson.M{"username": username, "active_session_id": hasSession}
	if sessionID != "" {
		filter["active_session_id"] = sessionID
	}

	res, err := r.coll.UpdateOne(ctx, filter, clearSession())
	if err != nil {
		return false, fmt.Errorf("clear active session: %w", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	// Nothing matched: tell a missing user apart from a stale or absent session
	n, err := r.coll.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, fmt.Errorf("count admin: %w", err)
	}
	if n == 0 {
		return false, repositories.ErrNotFound
	}
	return false, nil
}

func (r *AdminRepository) ClearAllActiveSessions(ctx context.Context) ([]string, error) {
	return r.clearMatching(ctx, bson.M{"active_session_id": hasSession})
}

func (r *AdminRepository) ClearSessionsStartedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	return r.clearMatching(ctx, bson.M{
		"active_session_id": hasSession,
		"last_login_at":     bson.M{"$lt": cutoff},
	})
}

// clearMatching clears every matching session with one UpdateMany and stamps the
// documents it changed with a batch id. The names are read back by that stamp, so a
// login landing after the update is never reported as cleared and a cleared account
// is never missed.
func (r *AdminRepository) clearMatching(ctx context.Context, filter bson.M) ([]string, error) {
	batch := uuid.NewString()
	update := clearSession()
	update["$set"].(bson.M)[clearedBatchField] = batch

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("clear sessions: %w", err)
	}
	if res.ModifiedCount == 0 {
		return []string{}, nil
	}

	raw, err := r.coll.Distinct(ctx, "username", bson.M{clearedBatchField: batch})
	if err != nil {
		return nil, fmt.Errorf("list cleared sessions: %w", err)
	}

	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	sort.Strings(names)
	return names, nil
}

func clearSession() bson.M {
	return bson.M{"$set": bson.M{"active_session_id": nil, "updated_at": time.Now().UTC()}}
}

var _ repositories.AdminRepository = (*AdminRepository)(nil)
