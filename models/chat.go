package models

// ChatRequest is the payload for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the assistant's reply plus a thin state summary.
type ChatResponse struct {
	Reply            string            `json:"reply"`
	Phase            string            `json:"phase,omitempty"`
	BookingConfirmed bool              `json:"bookingConfirmed,omitempty"`
	Booking          *CompletedBooking `json:"booking,omitempty"`
}
