package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripmate/internal/models"
	"tripmate/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestMessagingService(repo *fakeConversationRepo, typingIdle time.Duration) MessagingService {
	return NewMessagingService(repo, logger.NewDefault(), typingIdle)
}

func sendText(t *testing.T, svc MessagingService, conversationID primitive.ObjectID, sender models.UserIdentity, content string) primitive.ObjectID {
	t.Helper()
	id, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
	})
	if err != nil {
		t.Fatalf("SendMessage(%q) failed: %v", content, err)
	}
	return id
}

func TestSendMessageAppendsInOrder(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID(), Name: "Alice"}
	bob := models.UserIdentity{ID: primitive.NewObjectID(), Name: "Bob"}
	conversation := repo.addConversation(alice.ID, bob.ID)

	svc := newTestMessagingService(repo, time.Hour)

	sendText(t, svc, conversation.ID, alice, "first")
	sendText(t, svc, conversation.ID, bob, "second")
	sendText(t, svc, conversation.ID, alice, "third")

	messages, err := svc.GetMessages(context.Background(), conversation.ID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	want := []string{"first", "second", "third"}
	for i, message := range messages {
		if message.Content != want[i] {
			t.Errorf("message %d: got %q, want %q", i, message.Content, want[i])
		}
		if i > 0 && messages[i].Timestamp.Before(messages[i-1].Timestamp) {
			t.Errorf("message %d timestamp out of order", i)
		}
	}

	// The sender has read their own message immediately.
	if !messages[0].WasReadBy(alice.ID) {
		t.Error("sender missing from read_by")
	}
	if messages[0].WasReadBy(bob.ID) {
		t.Error("recipient unexpectedly in read_by")
	}

	if got := conversation.UnreadFor(bob.ID); got != 2 {
		t.Errorf("bob unread count: got %d, want 2", got)
	}
	if got := conversation.UnreadFor(alice.ID); got != 1 {
		t.Errorf("alice unread count: got %d, want 1", got)
	}
	if conversation.LastMessage != "third" {
		t.Errorf("last message preview: got %q, want %q", conversation.LastMessage, "third")
	}
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID)

	svc := newTestMessagingService(repo, time.Hour)

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ID,
		Sender:         alice,
		Content:        "   \n\t ",
	})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	messages, _ := svc.GetMessages(context.Background(), conversation.ID)
	if len(messages) != 0 {
		t.Errorf("rejected message was stored")
	}
}

func TestSendMessageRejectsOverlongContent(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID)

	svc := newTestMessagingService(repo, time.Hour)

	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'a'
	}

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ID,
		Sender:         alice,
		Content:        string(long),
	})
	if !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("expected ErrMessageTooLong, got %v", err)
	}
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	mallory := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID)

	svc := newTestMessagingService(repo, time.Hour)

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ID,
		Sender:         mallory,
		Content:        "let me in",
	})
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestSendMessageAllowsAttachmentWithoutText(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID)

	svc := newTestMessagingService(repo, time.Hour)

	_, err := svc.SendMessage(context.Background(), &SendMessageInput{
		ConversationID: conversation.ID,
		Sender:         alice,
		Type:           models.MessageTypeImage,
		AttachmentURL:  "https://cdn.example.com/photo.jpg",
		AttachmentName: "photo.jpg",
	})
	if err != nil {
		t.Fatalf("image message without text failed: %v", err)
	}

	if conversation.LastMessage != "Sent an image" {
		t.Errorf("preview: got %q, want %q", conversation.LastMessage, "Sent an image")
	}
}

func TestSendMessageClearsTyping(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID)

	svc := newTestMessagingService(repo, time.Hour)

	if err := svc.HandleInputChange(context.Background(), conversation.ID, alice.ID); err != nil {
		t.Fatalf("HandleInputChange failed: %v", err)
	}
	if got := repo.typingSet(conversation.ID); len(got) != 1 {
		t.Fatalf("expected typing set of 1, got %d", len(got))
	}

	sendText(t, svc, conversation.ID, alice, "done typing")

	if got := repo.typingSet(conversation.ID); len(got) != 0 {
		t.Errorf("typing set not cleared after send: %v", got)
	}
}

func TestTypingExpiresAfterIdle(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID)

	svc := newTestMessagingService(repo, 20*time.Millisecond)

	if err := svc.HandleInputChange(context.Background(), conversation.ID, alice.ID); err != nil {
		t.Fatalf("HandleInputChange failed: %v", err)
	}
	if got := repo.typingSet(conversation.ID); len(got) != 1 {
		t.Fatalf("expected typing after input, got %v", got)
	}

	waitFor(t, time.Second, func() bool {
		return len(repo.typingSet(conversation.ID)) == 0
	}, "typing flag never expired")
}

func TestTypingDebounceResetsIdleTimer(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID)

	svc := newTestMessagingService(repo, 80*time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := svc.HandleInputChange(context.Background(), conversation.ID, alice.ID); err != nil {
			t.Fatalf("HandleInputChange failed: %v", err)
		}
		time.Sleep(40 * time.Millisecond)
		// Each touch lands inside the previous idle window, so the flag
		// must still be on.
		if got := repo.typingSet(conversation.ID); len(got) != 1 {
			t.Fatalf("typing expired despite continued input (iteration %d)", i)
		}
	}

	waitFor(t, time.Second, func() bool {
		return len(repo.typingSet(conversation.ID)) == 0
	}, "typing flag never expired after input stopped")
}

func TestClearTypingCancelsPendingTimer(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID)

	svc := newTestMessagingService(repo, time.Hour)

	if err := svc.HandleInputChange(context.Background(), conversation.ID, alice.ID); err != nil {
		t.Fatalf("HandleInputChange failed: %v", err)
	}
	if err := svc.ClearTyping(context.Background(), conversation.ID, alice.ID); err != nil {
		t.Fatalf("ClearTyping failed: %v", err)
	}

	if got := repo.typingSet(conversation.ID); len(got) != 0 {
		t.Errorf("typing set not cleared: %v", got)
	}
}

func TestMarkConversationReadIsIdempotent(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	bob := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID, bob.ID)

	svc := newTestMessagingService(repo, time.Hour)

	sendText(t, svc, conversation.ID, bob, "hello")
	sendText(t, svc, conversation.ID, bob, "anyone there?")

	for i := 0; i < 2; i++ {
		if err := svc.MarkConversationRead(context.Background(), conversation.ID, alice.ID); err != nil {
			t.Fatalf("MarkConversationRead call %d failed: %v", i+1, err)
		}
	}

	if got := conversation.UnreadFor(alice.ID); got != 0 {
		t.Errorf("unread count after read: got %d, want 0", got)
	}

	messages, _ := svc.GetMessages(context.Background(), conversation.ID)
	for i, message := range messages {
		if !message.Read {
			t.Errorf("message %d still unread", i)
		}
		if !message.WasReadBy(alice.ID) {
			t.Errorf("message %d missing alice in read_by", i)
		}
	}
}

func TestMarkConversationReadFailureLeavesNoPartialState(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	bob := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID, bob.ID)

	svc := newTestMessagingService(repo, time.Hour)

	sendText(t, svc, conversation.ID, bob, "hello")
	sendText(t, svc, conversation.ID, bob, "still there?")

	storeDown := errors.New("store unavailable")
	repo.failMarkRead = storeDown

	err := svc.MarkConversationRead(context.Background(), conversation.ID, alice.ID)
	if !errors.Is(err, storeDown) {
		t.Fatalf("MarkConversationRead error = %v, want %v", err, storeDown)
	}

	// Failure is all or nothing: the unread counter and every message
	// stay exactly as they were.
	if got := conversation.UnreadFor(alice.ID); got != 2 {
		t.Errorf("unread count after failed read: got %d, want 2", got)
	}
	messages, _ := svc.GetMessages(context.Background(), conversation.ID)
	for i, message := range messages {
		if message.Read || message.WasReadBy(alice.ID) {
			t.Errorf("message %d marked read despite failure", i)
		}
	}

	repo.failMarkRead = nil
	if err := svc.MarkConversationRead(context.Background(), conversation.ID, alice.ID); err != nil {
		t.Fatalf("retry after recovery failed: %v", err)
	}
	if got := conversation.UnreadFor(alice.ID); got != 0 {
		t.Errorf("unread count after retry: got %d, want 0", got)
	}
}

func TestSubscribeDeliversSnapshotsUntilUnsubscribed(t *testing.T) {
	repo := newFakeConversationRepo()
	alice := models.UserIdentity{ID: primitive.NewObjectID()}
	conversation := repo.addConversation(alice.ID)

	svc := newTestMessagingService(repo, time.Hour)
	defer svc.Shutdown()

	sendText(t, svc, conversation.ID, alice, "before subscribe")

	snapshots := make(chan []*models.Message, 16)
	subscriptionID, err := svc.Subscribe(context.Background(), conversation.ID, func(messages []*models.Message) {
		snapshots <- messages
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	initial := nextSnapshot(t, snapshots)
	if len(initial) != 1 || initial[0].Content != "before subscribe" {
		t.Fatalf("initial snapshot wrong: %v", initial)
	}

	sendText(t, svc, conversation.ID, alice, "live update")

	update := nextSnapshot(t, snapshots)
	if len(update) != 2 {
		t.Fatalf("expected snapshot of 2 messages, got %d", len(update))
	}
	if update[1].Content != "live update" {
		t.Errorf("snapshot tail: got %q, want %q", update[1].Content, "live update")
	}

	svc.Unsubscribe(subscriptionID)

	// Give the watcher goroutine a moment to observe the cancellation.
	time.Sleep(20 * time.Millisecond)
	drain(snapshots)

	sendText(t, svc, conversation.ID, alice, "after unsubscribe")

	select {
	case got := <-snapshots:
		t.Fatalf("received snapshot after unsubscribe: %d messages", len(got))
	case <-time.After(100 * time.Millisecond):
	}
}

func nextSnapshot(t *testing.T, snapshots <-chan []*models.Message) []*models.Message {
	t.Helper()
	select {
	case snapshot := <-snapshots:
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func drain(snapshots <-chan []*models.Message) {
	for {
		select {
		case <-snapshots:
		default:
			return
		}
	}
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}
