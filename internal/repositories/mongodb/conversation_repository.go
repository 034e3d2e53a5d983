package mongodb

import (
	"context"
	"fmt"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/services"
	"tripmate/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type conversationRepository struct {
	conversationsCollection *mongo.Collection
	messagesCollection      *mongo.Collection
	cache                   services.CacheService
	logger                  *logger.Logger
}

func NewConversationRepository(db *mongo.Database, cache services.CacheService, log *logger.Logger) interfaces.ConversationRepository {
	if log == nil {
		log = logger.NewDefault()
	}

	return &conversationRepository{
		conversationsCollection: db.Collection("conversations"),
		messagesCollection:      db.Collection("messages"),
		cache:                   cache,
		logger:                  log,
	}
}

// Conversation CRUD operations
func (r *conversationRepository) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	conversation.ID = primitive.NewObjectID()
	conversation.CreatedAt = time.Now()
	conversation.UpdatedAt = time.Now()

	_, err := r.conversationsCollection.InsertOne(ctx, conversation)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	r.cacheConversation(ctx, conversation)

	return nil
}

func (r *conversationRepository) GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	if conversation := r.getConversationFromCache(ctx, id); conversation != nil {
		return conversation, nil
	}

	var conversation models.Conversation
	err := r.conversationsCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("conversation not found")
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	r.cacheConversation(ctx, &conversation)

	return &conversation, nil
}

func (r *conversationRepository) GetConversationsByParticipant(ctx context.Context, participantID primitive.ObjectID) ([]*models.Conversation, error) {
	filter := bson.M{
		"participants": bson.M{"$in": []primitive.ObjectID{participantID}},
	}

	cursor, err := r.conversationsCollection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "last_message_time", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var conversations []*models.Conversation
	for cursor.Next(ctx) {
		var conversation models.Conversation
		if err := cursor.Decode(&conversation); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		conversations = append(conversations, &conversation)
	}

	return conversations, nil
}

// Per-viewer flags
func (r *conversationRepository) SetMuted(ctx context.Context, conversationID, userID primitive.ObjectID, muted bool) error {
	return r.toggleUserFlag(ctx, conversationID, userID, "muted_by", muted)
}

func (r *conversationRepository) SetArchived(ctx context.Context, conversationID, userID primitive.ObjectID, archived bool) error {
	return r.toggleUserFlag(ctx, conversationID, userID, "archived_by", archived)
}

func (r *conversationRepository) SetTyping(ctx context.Context, conversationID, userID primitive.ObjectID, typing bool) error {
	return r.toggleUserFlag(ctx, conversationID, userID, "typing", typing)
}

// toggleUserFlag adds or removes userID in one of the conversation's
// per-user id sets. $addToSet/$pull keep the operation idempotent.
func (r *conversationRepository) toggleUserFlag(ctx context.Context, conversationID, userID primitive.ObjectID, field string, member bool) error {
	var update bson.M
	if member {
		update = bson.M{
			"$addToSet": bson.M{field: userID},
			"$set":      bson.M{"updated_at": time.Now()},
		}
	} else {
		update = bson.M{
			"$pull": bson.M{field: userID},
			"$set":  bson.M{"updated_at": time.Now()},
		}
	}

	_, err := r.conversationsCollection.UpdateOne(ctx, bson.M{"_id": conversationID}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", field, err)
	}

	r.invalidateConversationCache(ctx, conversationID)

	return nil
}

// Message log
func (r *conversationRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.Timestamp = time.Now()
	message.CreatedAt = message.Timestamp
	message.UpdatedAt = message.Timestamp

	if _, err := r.messagesCollection.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	// The summary write is separate from the insert. If it fails the
	// conversation list is transiently stale; the message itself is already
	// durable, so the failure is logged rather than surfaced.
	if err := r.updateConversationSummary(ctx, message); err != nil {
		r.logger.WithError(err).WithConversationID(message.ConversationID).Warn("failed to update conversation summary")
	}

	r.invalidateConversationCache(ctx, message.ConversationID)

	return nil
}

func (r *conversationRepository) updateConversationSummary(ctx context.Context, message *models.Message) error {
	conversation, err := r.GetConversationByID(ctx, message.ConversationID)
	if err != nil {
		return err
	}

	set := bson.M{
		"last_message": message.PreviewText(),
		"updated_at":   time.Now(),
	}
	inc := bson.M{}
	for _, participant := range conversation.Participants {
		if participant != message.SenderID {
			inc["unread_counts."+participant.Hex()] = 1
		}
	}

	update := bson.M{
		"$set": set,
		// $max keeps last_message_time monotonically non-decreasing even if
		// summary updates land out of order.
		"$max": bson.M{"last_message_time": message.Timestamp},
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	_, err = r.conversationsCollection.UpdateOne(ctx, bson.M{"_id": message.ConversationID}, update)
	if err != nil {
		return fmt.Errorf("failed to update conversation summary: %w", err)
	}

	return nil
}

func (r *conversationRepository) GetMessages(ctx context.Context, conversationID primitive.ObjectID) ([]*models.Message, error) {
	filter := bson.M{"conversation_id": conversationID}

	cursor, err := r.messagesCollection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	for cursor.Next(ctx) {
		var message models.Message
		if err := cursor.Decode(&message); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *conversationRepository) MarkConversationRead(ctx context.Context, conversationID, userID primitive.ObjectID) error {
	session, err := r.conversationsCollection.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	// Read flags and the unread counter must move together: a crash
	// mid-update may not leave some messages read while the counter stays
	// stale.
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		_, err := r.messagesCollection.UpdateMany(
			sc,
			bson.M{
				"conversation_id": conversationID,
				"read":            false,
				"sender_id":       bson.M{"$ne": userID},
			},
			bson.M{
				"$set":      bson.M{"read": true, "updated_at": time.Now()},
				"$addToSet": bson.M{"read_by": userID},
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to mark messages read: %w", err)
		}

		_, err = r.conversationsCollection.UpdateOne(
			sc,
			bson.M{"_id": conversationID},
			bson.M{
				"$set": bson.M{
					"unread_counts." + userID.Hex(): 0,
					"updated_at":                    time.Now(),
				},
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reset unread count: %w", err)
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}

	r.invalidateConversationCache(ctx, conversationID)

	return nil
}

func (r *conversationRepository) WatchMessages(ctx context.Context, conversationID primitive.ObjectID) (<-chan struct{}, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"fullDocument.conversation_id": conversationID}}},
	}

	stream, err := r.messagesCollection.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	ticks := make(chan struct{}, 1)

	go func() {
		defer close(ticks)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			// Coalesce: a pending tick already forces a fresh snapshot.
			select {
			case ticks <- struct{}{}:
			default:
			}
		}
	}()

	return ticks, nil
}

// Cache helpers
func (r *conversationRepository) cacheConversation(ctx context.Context, conversation *models.Conversation) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, services.ConversationCacheKey(conversation.ID), conversation, 30*time.Minute)
}

func (r *conversationRepository) getConversationFromCache(ctx context.Context, id primitive.ObjectID) *models.Conversation {
	if r.cache == nil {
		return nil
	}

	var conversation models.Conversation
	if err := r.cache.Get(ctx, services.ConversationCacheKey(id), &conversation); err != nil {
		return nil
	}
	return &conversation
}

func (r *conversationRepository) invalidateConversationCache(ctx context.Context, id primitive.ObjectID) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, services.ConversationCacheKey(id))
}
