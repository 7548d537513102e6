package model

// Stats counts complaints per status.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

// Add counts one complaint with the given status.
func (s *Stats) Add(status ComplaintStatus) {
	s.Total++
	switch status {
	case StatusPending:
		s.Pending++
	case StatusInProgress:
		s.InProgress++
	case StatusResolved:
		s.Resolved++
	}
}
