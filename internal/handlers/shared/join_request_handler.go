package handlers

import (
	"tripmate/internal/services"
	"tripmate/internal/utils"
	"tripmate/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JoinRequestHandler struct {
	joinRequestService services.JoinRequestService
}

func NewJoinRequestHandler(joinRequestService services.JoinRequestService) *JoinRequestHandler {
	return &JoinRequestHandler{
		joinRequestService: joinRequestService,
	}
}

// CreateJoinRequest files a pending request to join a carpool and
// notifies the driver.
func (h *JoinRequestHandler) CreateJoinRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var req validators.CreateJoinRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidInput)
		return
	}
	if errs := validators.ValidateStruct(&req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	carpoolID, _ := primitive.ObjectIDFromHex(req.CarpoolID)
	tripID, _ := primitive.ObjectIDFromHex(req.TripID)
	driverID, _ := primitive.ObjectIDFromHex(req.DriverID)

	request, err := h.joinRequestService.CreateJoinRequest(c.Request.Context(), &services.CreateJoinRequestInput{
		CarpoolID:     carpoolID,
		TripID:        tripID,
		RequesterID:   user.ID,
		RequesterName: user.Name,
		DriverID:      driverID,
		Message:       req.Message,
	})
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "join request created", request)
}

// ApproveJoinRequest flips a pending request to approved and reserves a
// seat. Repeating the call is a no-op.
func (h *JoinRequestHandler) ApproveJoinRequest(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	requestID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.joinRequestService.ApproveJoinRequest(c.Request.Context(), requestID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "join request approved", nil)
}

func (h *JoinRequestHandler) RejectJoinRequest(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	requestID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.joinRequestService.RejectJoinRequest(c.Request.Context(), requestID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "join request rejected", nil)
}

// CancelJoinRequest withdraws the caller's own still-pending request.
func (h *JoinRequestHandler) CancelJoinRequest(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	requestID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.joinRequestService.CancelJoinRequest(c.Request.Context(), requestID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "join request cancelled", nil)
}

// ListMyJoinRequests returns every request the caller has filed, newest
// first.
func (h *JoinRequestHandler) ListMyJoinRequests(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	requests, err := h.joinRequestService.ListForRequester(c.Request.Context(), user.ID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "join requests retrieved", requests, &utils.Meta{
		Count: len(requests),
	})
}

// ListCarpoolJoinRequests returns a carpool's pending requests for its
// driver.
func (h *JoinRequestHandler) ListCarpoolJoinRequests(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	carpoolID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	requests, err := h.joinRequestService.ListPendingForCarpool(c.Request.Context(), carpoolID, user.ID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "join requests retrieved", requests, &utils.Meta{
		Count: len(requests),
	})
}

// ListIncomingJoinRequests returns pending requests awaiting the caller's
// decision as driver.
func (h *JoinRequestHandler) ListIncomingJoinRequests(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	requests, err := h.joinRequestService.ListPendingForDriver(c.Request.Context(), user.ID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "join requests retrieved", requests, &utils.Meta{
		Count: len(requests),
	})
}
