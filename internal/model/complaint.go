package model

import (
	"strings"
	"time"
)

// Category is the fixed set of complaint categories.
type Category string

const (
	CategoryGarbage        Category = "Garbage"
	CategoryPathHoles      Category = "Path Holes"
	CategoryServiceQuality Category = "Service Quality"
	CategoryElectricity    Category = "Electricity"
	CategoryWaterPipeline  Category = "Water Pipeline"
	CategoryOther          Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryGarbage,
	CategoryPathHoles,
	CategoryServiceQuality,
	CategoryElectricity,
	CategoryWaterPipeline,
	CategoryOther,
}

// ParseCategory matches s case-insensitively against the known categories.
// The web form posts "other" for CategoryOther, so both spellings resolve.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Priority represents how urgent a complaint is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority matches s case-insensitively against the known priorities.
func ParsePriority(s string) (Priority, bool) {
	s = strings.TrimSpace(s)
	for _, p := range Priorities {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// ComplaintStatus represents where a complaint is in its lifecycle.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "pending"
	StatusInProgress ComplaintStatus = "in-progress"
	StatusResolved   ComplaintStatus = "resolved"
)

// Statuses lists every status in lifecycle order.
var Statuses = []ComplaintStatus{StatusPending, StatusInProgress, StatusResolved}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (ComplaintStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// Rank orders statuses along the lifecycle. Unknown statuses rank -1.
func (s ComplaintStatus) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the three lifecycle statuses.
func (s ComplaintStatus) Valid() bool {
	return s.Rank() >= 0
}

// Complaint is a user-submitted issue report.
//
// The JSON layout matches what is persisted under the "complaints" key.
type Complaint struct {
	ID          string          `json:"id"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Category    Category        `json:"category" validate:"required,category"`
	Priority    Priority        `json:"priority" validate:"required,priority"`
	Status      ComplaintStatus `json:"status" validate:"omitempty,status"`
	Location    string          `json:"location" validate:"required"`
	Media       []string        `json:"media,omitempty"`
	UserID      string          `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OwnedBy reports whether the complaint belongs to userID.
func (c *Complaint) OwnedBy(userID string) bool {
	return c.UserID == userID
}
