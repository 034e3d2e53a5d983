package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tripmate/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCurrentUserRequiresIdentity(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if _, ok := currentUser(c); ok {
		t.Error("currentUser succeeded without identity on context")
	}

	userID := primitive.NewObjectID()
	c.Set("user_id", userID)
	c.Set("user_name", "Alice")
	c.Set("user_avatar", "https://cdn.example.com/a.png")

	user, ok := currentUser(c)
	if !ok {
		t.Fatal("currentUser failed with identity set")
	}
	if user.ID != userID || user.Name != "Alice" {
		t.Errorf("identity wrong: %+v", user)
	}
}

func TestDomainErrorResponseMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"empty message", services.ErrEmptyMessage, http.StatusBadRequest},
		{"message too long", services.ErrMessageTooLong, http.StatusBadRequest},
		{"join message too long", services.ErrJoinMessageTooLong, http.StatusBadRequest},
		{"duplicate request", services.ErrDuplicateJoinRequest, http.StatusConflict},
		{"already decided", services.ErrRequestAlreadyDecided, http.StatusConflict},
		{"no longer pending", services.ErrRequestNotPending, http.StatusConflict},
		{"no seats", services.ErrNoSeatsAvailable, http.StatusConflict},
		{"not participant", services.ErrNotParticipant, http.StatusForbidden},
		{"missing record", errors.New("join request not found"), http.StatusNotFound},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)

			domainErrorResponse(c, tc.err)

			if recorder.Code != tc.want {
				t.Errorf("status for %v: got %d, want %d", tc.err, recorder.Code, tc.want)
			}
		})
	}
}

func TestDomainErrorResponseUnwrapsSentinels(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	wrapped := services.ErrNoSeatsAvailable
	domainErrorResponse(c, errors.Join(errors.New("approve failed"), wrapped))

	if recorder.Code != http.StatusConflict {
		t.Errorf("wrapped sentinel status: got %d, want %d", recorder.Code, http.StatusConflict)
	}
}
