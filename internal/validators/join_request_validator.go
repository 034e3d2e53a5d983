package validators

type CreateJoinRequestRequest struct {
	CarpoolID string `json:"carpool_id" validate:"required,object_id"`
	TripID    string `json:"trip_id" validate:"required,object_id"`
	DriverID  string `json:"driver_id" validate:"required,object_id"`
	Message   string `json:"message" validate:"omitempty,max=200"`
}
