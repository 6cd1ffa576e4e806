package bookings

// BookRequest is the POST /book body.
type BookRequest struct {
	UserID         string `json:"user_id" binding:"required,alphanum,max=100"`
	ConferenceName string `json:"name" binding:"required"`
}

// ConfirmRequest is the POST /confirm body.
type ConfirmRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	UserID    string `json:"user_id" binding:"required,alphanum,max=100"`
}

// CancelRequest is the POST /cancel body. There is deliberately no user_id
// field: cancellation performs no owner check.
type CancelRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
}
