package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeClock hands out strictly increasing timestamps so ordering
// assertions do not depend on wall-clock resolution.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	clock         *fakeClock
	conversations map[primitive.ObjectID]*models.Conversation
	messages      map[primitive.ObjectID][]*models.Message
	watchers      map[primitive.ObjectID][]chan struct{}

	failCreateMessage error
	failSetTyping     error
	failMarkRead      error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		clock:         newFakeClock(),
		conversations: make(map[primitive.ObjectID]*models.Conversation),
		messages:      make(map[primitive.ObjectID][]*models.Message),
		watchers:      make(map[primitive.ObjectID][]chan struct{}),
	}
}

func (r *fakeConversationRepo) addConversation(participants ...primitive.ObjectID) *models.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation := &models.Conversation{
		ID:           primitive.NewObjectID(),
		Participants: participants,
		UnreadCounts: make(map[string]int),
		CreatedAt:    r.clock.Next(),
	}
	for _, participant := range participants {
		conversation.UnreadCounts[participant.Hex()] = 0
	}
	r.conversations[conversation.ID] = conversation
	return conversation
}

func (r *fakeConversationRepo) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation.ID = primitive.NewObjectID()
	conversation.CreatedAt = r.clock.Next()
	conversation.UpdatedAt = conversation.CreatedAt
	r.conversations[conversation.ID] = conversation
	return nil
}

func (r *fakeConversationRepo) GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation not found")
	}
	return conversation, nil
}

func (r *fakeConversationRepo) GetConversationsByParticipant(ctx context.Context, participantID primitive.ObjectID) ([]*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Conversation
	for _, conversation := range r.conversations {
		if conversation.HasParticipant(participantID) {
			result = append(result, conversation)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastMessageTime.After(result[j].LastMessageTime)
	})
	return result, nil
}

func (r *fakeConversationRepo) SetMuted(ctx context.Context, conversationID, userID primitive.ObjectID, muted bool) error {
	return r.toggle(conversationID, userID, muted, func(c *models.Conversation) *[]primitive.ObjectID {
		return &c.MutedBy
	})
}

func (r *fakeConversationRepo) SetArchived(ctx context.Context, conversationID, userID primitive.ObjectID, archived bool) error {
	return r.toggle(conversationID, userID, archived, func(c *models.Conversation) *[]primitive.ObjectID {
		return &c.ArchivedBy
	})
}

func (r *fakeConversationRepo) SetTyping(ctx context.Context, conversationID, userID primitive.ObjectID, typing bool) error {
	if r.failSetTyping != nil {
		return r.failSetTyping
	}
	return r.toggle(conversationID, userID, typing, func(c *models.Conversation) *[]primitive.ObjectID {
		return &c.Typing
	})
}

func (r *fakeConversationRepo) toggle(conversationID, userID primitive.ObjectID, on bool, set func(*models.Conversation) *[]primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[conversationID]
	if !ok {
		return fmt.Errorf("conversation not found")
	}

	ids := set(conversation)
	filtered := (*ids)[:0]
	for _, id := range *ids {
		if id != userID {
			filtered = append(filtered, id)
		}
	}
	*ids = filtered
	if on {
		*ids = append(*ids, userID)
	}
	return nil
}

func (r *fakeConversationRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	r.mu.Lock()
	if r.failCreateMessage != nil {
		err := r.failCreateMessage
		r.mu.Unlock()
		return err
	}

	conversation, ok := r.conversations[message.ConversationID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("conversation not found")
	}

	message.ID = primitive.NewObjectID()
	message.Timestamp = r.clock.Next()
	message.CreatedAt = message.Timestamp
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], message)

	conversation.LastMessage = message.PreviewText()
	conversation.LastMessageTime = message.Timestamp
	for _, participant := range conversation.Participants {
		if participant != message.SenderID {
			conversation.UnreadCounts[participant.Hex()]++
		}
	}

	watchers := append([]chan struct{}(nil), r.watchers[message.ConversationID]...)
	r.mu.Unlock()

	for _, tick := range watchers {
		select {
		case tick <- struct{}{}:
		default:
		}
	}
	return nil
}

func (r *fakeConversationRepo) GetMessages(ctx context.Context, conversationID primitive.ObjectID) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages := append([]*models.Message(nil), r.messages[conversationID]...)
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}

func (r *fakeConversationRepo) MarkConversationRead(ctx context.Context, conversationID, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A failure leaves both the messages and the counter untouched, the
	// same way an aborted transaction would.
	if r.failMarkRead != nil {
		return r.failMarkRead
	}

	conversation, ok := r.conversations[conversationID]
	if !ok {
		return fmt.Errorf("conversation not found")
	}

	for _, message := range r.messages[conversationID] {
		if message.SenderID == userID || message.WasReadBy(userID) {
			continue
		}
		message.Read = true
		message.ReadBy = append(message.ReadBy, userID)
	}
	conversation.UnreadCounts[userID.Hex()] = 0
	return nil
}

func (r *fakeConversationRepo) WatchMessages(ctx context.Context, conversationID primitive.ObjectID) (<-chan struct{}, error) {
	tick := make(chan struct{}, 1)

	r.mu.Lock()
	r.watchers[conversationID] = append(r.watchers[conversationID], tick)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		watchers := r.watchers[conversationID]
		for i, candidate := range watchers {
			if candidate == tick {
				r.watchers[conversationID] = append(watchers[:i], watchers[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
		close(tick)
	}()

	return tick, nil
}

func (r *fakeConversationRepo) typingSet(conversationID primitive.ObjectID) []primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]primitive.ObjectID(nil), r.conversations[conversationID].Typing...)
}

type fakeJoinRequestRepo struct {
	mu       sync.Mutex
	clock    *fakeClock
	requests map[primitive.ObjectID]*models.JoinRequest
	carpools map[primitive.ObjectID]*models.Carpool
}

func newFakeJoinRequestRepo() *fakeJoinRequestRepo {
	return &fakeJoinRequestRepo{
		clock:    newFakeClock(),
		requests: make(map[primitive.ObjectID]*models.JoinRequest),
		carpools: make(map[primitive.ObjectID]*models.Carpool),
	}
}

func (r *fakeJoinRequestRepo) addCarpool(driverID primitive.ObjectID, seats int) *models.Carpool {
	r.mu.Lock()
	defer r.mu.Unlock()

	carpool := &models.Carpool{
		ID:             primitive.NewObjectID(),
		TripID:         primitive.NewObjectID(),
		DriverID:       driverID,
		TotalSeats:     seats,
		AvailableSeats: seats,
	}
	r.carpools[carpool.ID] = carpool
	return carpool
}

func (r *fakeJoinRequestRepo) Create(ctx context.Context, request *models.JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request.ID = primitive.NewObjectID()
	request.CreatedAt = r.clock.Next()
	request.UpdatedAt = request.CreatedAt
	r.requests[request.ID] = request
	return nil
}

func (r *fakeJoinRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("join request not found")
	}
	copied := *request
	return &copied, nil
}

func (r *fakeJoinRequestRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[id]; !ok {
		return fmt.Errorf("join request not found")
	}
	delete(r.requests, id)
	return nil
}

func (r *fakeJoinRequestRepo) HasPending(ctx context.Context, carpoolID, requesterID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, request := range r.requests {
		if request.CarpoolID == carpoolID && request.RequesterID == requesterID && request.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeJoinRequestRepo) Approve(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("join request not found")
	}
	if !request.IsPending() {
		return ErrRequestNotPending
	}

	carpool, ok := r.carpools[request.CarpoolID]
	if !ok {
		return fmt.Errorf("carpool not found")
	}
	if !carpool.HasSeats() {
		return ErrNoSeatsAvailable
	}

	now := r.clock.Next()
	request.Status = models.JoinRequestStatusApproved
	request.RespondedAt = &now
	request.UpdatedAt = now

	carpool.AvailableSeats--
	if !carpool.HasParticipant(request.RequesterID) {
		carpool.Participants = append(carpool.Participants, request.RequesterID)
	}
	return nil
}

func (r *fakeJoinRequestRepo) Reject(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("join request not found")
	}
	if !request.IsPending() {
		return ErrRequestNotPending
	}

	now := r.clock.Next()
	request.Status = models.JoinRequestStatusRejected
	request.RespondedAt = &now
	request.UpdatedAt = now
	return nil
}

func (r *fakeJoinRequestRepo) GetByRequester(ctx context.Context, requesterID primitive.ObjectID) ([]*models.JoinRequest, error) {
	return r.find(func(request *models.JoinRequest) bool {
		return request.RequesterID == requesterID
	})
}

func (r *fakeJoinRequestRepo) GetPendingByDriver(ctx context.Context, driverID primitive.ObjectID) ([]*models.JoinRequest, error) {
	return r.find(func(request *models.JoinRequest) bool {
		return request.DriverID == driverID && request.IsPending()
	})
}

func (r *fakeJoinRequestRepo) GetPendingByCarpool(ctx context.Context, carpoolID primitive.ObjectID) ([]*models.JoinRequest, error) {
	return r.find(func(request *models.JoinRequest) bool {
		return request.CarpoolID == carpoolID && request.IsPending()
	})
}

func (r *fakeJoinRequestRepo) find(match func(*models.JoinRequest) bool) ([]*models.JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.JoinRequest
	for _, request := range r.requests {
		if match(request) {
			copied := *request
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeJoinRequestRepo) GetCarpool(ctx context.Context, id primitive.ObjectID) (*models.Carpool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	carpool, ok := r.carpools[id]
	if !ok {
		return nil, fmt.Errorf("carpool not found")
	}
	copied := *carpool
	return &copied, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	clock         *fakeClock
	notifications []*models.Notification

	failCreate error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{clock: newFakeClock()}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreate != nil {
		return r.failCreate
	}

	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = r.clock.Next()
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, notification := range r.notifications {
		if notification.ID == id {
			return notification, nil
		}
	}
	return nil, fmt.Errorf("notification not found")
}

func (r *fakeNotificationRepo) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			matched = append(matched, notification)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := int(params.Skip())
	if start > len(matched) {
		start = len(matched)
	}
	end := start + int(params.Limit())
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, notification := range r.notifications {
		if notification.ID == id && !notification.Read {
			now := r.clock.Next()
			notification.Read = true
			notification.ReadAt = &now
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Next()
	for _, notification := range r.notifications {
		if notification.UserID == userID && !notification.Read {
			notification.Read = true
			notification.ReadAt = &now
		}
	}
	return nil
}

func (r *fakeNotificationRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.JoinRequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, notification := range r.notifications {
		if notification.ID == id && notification.Type == models.NotificationTypeCarpool {
			notification.Status = status
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, notification := range r.notifications {
		if notification.ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification not found")
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, notification := range r.notifications {
		if notification.UserID == userID && !notification.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) forUser(userID primitive.ObjectID) []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			matched = append(matched, notification)
		}
	}
	return matched
}

// fakeNotifier records realtime events instead of pushing them.
type fakeNotifier struct {
	mu     sync.Mutex
	events []fakeEvent
}

type fakeEvent struct {
	UserID primitive.ObjectID
	Event  string
	Data   map[string]interface{}
}

func (n *fakeNotifier) SendUserEvent(userID primitive.ObjectID, event string, data map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fakeEvent{UserID: userID, Event: event, Data: data})
}

func (n *fakeNotifier) recorded() []fakeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]fakeEvent(nil), n.events...)
}
