package model

import "time"

// Notification tells a user that one of their complaints changed status.
type Notification struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	ComplaintID string          `json:"complaintId"`
	Message     string          `json:"message"`
	Status      ComplaintStatus `json:"status"`
	Read        bool            `json:"read"`
	CreatedAt   time.Time       `json:"createdAt"`
}
