package dto

type BuyTicketRequest struct {
	EventID    string `json:"eventId" validate:"required,max=64"`
	TicketType string `json:"ticketType" validate:"required"`
}

type TicketActionRequest struct {
	TicketID string `json:"ticketId" validate:"required,max=64"`
}
