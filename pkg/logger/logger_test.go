package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWarnCarriesStructuredFields(t *testing.T) {
	log, err := NewLogger(&Config{Level: WarnLevel, Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)

	conversationID := primitive.NewObjectID()
	log.WithError(errors.New("boom")).
		WithConversationID(conversationID).
		Warn("failed to update conversation summary")

	line := buf.String()
	for _, want := range []string{
		`"error":"boom"`,
		`"conversation_id":"` + conversationID.Hex() + `"`,
		"failed to update conversation summary",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %q: %s", want, line)
		}
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	log, err := NewLogger(&Config{Level: InfoLevel, Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)

	child := log.WithField("user_id", "abc")
	_ = child

	log.Info("no fields")
	if strings.Contains(buf.String(), "user_id") {
		t.Errorf("parent logger picked up child field: %s", buf.String())
	}
}
