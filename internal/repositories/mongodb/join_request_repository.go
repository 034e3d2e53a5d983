package mongodb

import (
	"context"
	"fmt"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type joinRequestRepository struct {
	requestsCollection *mongo.Collection
	carpoolsCollection *mongo.Collection
	cache              services.CacheService
}

func NewJoinRequestRepository(db *mongo.Database, cache services.CacheService) interfaces.JoinRequestRepository {
	return &joinRequestRepository{
		requestsCollection: db.Collection("join_requests"),
		carpoolsCollection: db.Collection("carpools"),
		cache:              cache,
	}
}

func (r *joinRequestRepository) Create(ctx context.Context, request *models.JoinRequest) error {
	request.ID = primitive.NewObjectID()
	request.CreatedAt = time.Now()
	request.UpdatedAt = time.Now()

	_, err := r.requestsCollection.InsertOne(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to create join request: %w", err)
	}

	return nil
}

func (r *joinRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.JoinRequest, error) {
	var request models.JoinRequest
	err := r.requestsCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("join request not found")
		}
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}

	return &request, nil
}

func (r *joinRequestRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.requestsCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete join request: %w", err)
	}

	return nil
}

func (r *joinRequestRepository) HasPending(ctx context.Context, carpoolID, requesterID primitive.ObjectID) (bool, error) {
	count, err := r.requestsCollection.CountDocuments(ctx, bson.M{
		"carpool_id":   carpoolID,
		"requester_id": requesterID,
		"status":       models.JoinRequestStatusPending,
	})
	if err != nil {
		return false, fmt.Errorf("failed to count pending requests: %w", err)
	}

	return count > 0, nil
}

// Approve runs the status flip, the seat decrement and the participant add
// in one transaction. The status filter guards against concurrent
// double-approval; the seat filter prevents overbooking.
func (r *joinRequestRepository) Approve(ctx context.Context, id primitive.ObjectID) error {
	session, err := r.requestsCollection.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var request models.JoinRequest
		err := r.requestsCollection.FindOne(sc, bson.M{"_id": id}).Decode(&request)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("join request not found")
			}
			return nil, fmt.Errorf("failed to get join request: %w", err)
		}

		now := time.Now()
		result, err := r.requestsCollection.UpdateOne(
			sc,
			bson.M{"_id": id, "status": models.JoinRequestStatusPending},
			bson.M{"$set": bson.M{
				"status":       models.JoinRequestStatusApproved,
				"responded_at": now,
				"updated_at":   now,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to approve join request: %w", err)
		}
		if result.ModifiedCount == 0 {
			return nil, services.ErrRequestNotPending
		}

		seatResult, err := r.carpoolsCollection.UpdateOne(
			sc,
			bson.M{
				"_id":             request.CarpoolID,
				"available_seats": bson.M{"$gt": 0},
			},
			bson.M{
				"$inc":      bson.M{"available_seats": -1},
				"$addToSet": bson.M{"participants": request.RequesterID},
				"$set":      bson.M{"updated_at": now},
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve seat: %w", err)
		}
		if seatResult.ModifiedCount == 0 {
			return nil, services.ErrNoSeatsAvailable
		}

		r.invalidateCarpoolCache(sc, request.CarpoolID)

		return nil, nil
	})

	return err
}

func (r *joinRequestRepository) Reject(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	result, err := r.requestsCollection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.JoinRequestStatusPending},
		bson.M{"$set": bson.M{
			"status":       models.JoinRequestStatusRejected,
			"responded_at": now,
			"updated_at":   now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to reject join request: %w", err)
	}
	if result.ModifiedCount == 0 {
		return services.ErrRequestNotPending
	}

	return nil
}

func (r *joinRequestRepository) GetByRequester(ctx context.Context, requesterID primitive.ObjectID) ([]*models.JoinRequest, error) {
	return r.findRequests(ctx, bson.M{"requester_id": requesterID})
}

func (r *joinRequestRepository) GetPendingByDriver(ctx context.Context, driverID primitive.ObjectID) ([]*models.JoinRequest, error) {
	return r.findRequests(ctx, bson.M{
		"driver_id": driverID,
		"status":    models.JoinRequestStatusPending,
	})
}

func (r *joinRequestRepository) GetPendingByCarpool(ctx context.Context, carpoolID primitive.ObjectID) ([]*models.JoinRequest, error) {
	return r.findRequests(ctx, bson.M{
		"carpool_id": carpoolID,
		"status":     models.JoinRequestStatusPending,
	})
}

func (r *joinRequestRepository) findRequests(ctx context.Context, filter bson.M) ([]*models.JoinRequest, error) {
	cursor, err := r.requestsCollection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find join requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.JoinRequest
	for cursor.Next(ctx) {
		var request models.JoinRequest
		if err := cursor.Decode(&request); err != nil {
			return nil, fmt.Errorf("failed to decode join request: %w", err)
		}
		requests = append(requests, &request)
	}

	return requests, nil
}

func (r *joinRequestRepository) GetCarpool(ctx context.Context, id primitive.ObjectID) (*models.Carpool, error) {
	if r.cache != nil {
		var carpool models.Carpool
		if err := r.cache.Get(ctx, services.CarpoolCacheKey(id), &carpool); err == nil {
			return &carpool, nil
		}
	}

	var carpool models.Carpool
	err := r.carpoolsCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&carpool)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("carpool not found")
		}
		return nil, fmt.Errorf("failed to get carpool: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, services.CarpoolCacheKey(id), &carpool, 30*time.Minute)
	}

	return &carpool, nil
}

func (r *joinRequestRepository) invalidateCarpoolCache(ctx context.Context, id primitive.ObjectID) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, services.CarpoolCacheKey(id))
}
