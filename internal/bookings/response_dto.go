package bookings

import "time"

// BookingResponse is the wire shape returned for a single booking.
type BookingResponse struct {
	BookingID            string     `json:"booking_id"`
	ConferenceID         string     `json:"conference_id"`
	ConferenceName       string     `json:"conference_name,omitempty"`
	UserID               string     `json:"user_id"`
	Status               string     `json:"status"`
	WaitlistPosition     *int64     `json:"waitlist_position,omitempty"`
	CanConfirm           bool       `json:"can_confirm"`
	ConfirmationDeadline *time.Time `json:"confirmation_deadline,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

func toResponse(b *Booking, confName string) BookingResponse {
	return BookingResponse{
		BookingID:            b.ID.String(),
		ConferenceID:         b.ConferenceID.String(),
		ConferenceName:       confName,
		UserID:               b.UserID,
		Status:               b.Status.String(),
		WaitlistPosition:     b.WaitlistPosition,
		CanConfirm:           b.CanConfirm,
		ConfirmationDeadline: b.ConfirmationDeadline,
		CreatedAt:            b.CreatedAt,
	}
}

func toResponseList(rows []Booking, confName string) []BookingResponse {
	out := make([]BookingResponse, len(rows))
	for i := range rows {
		out[i] = toResponse(&rows[i], confName)
	}
	return out
}
