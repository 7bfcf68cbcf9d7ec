package types

// Stats is the broker snapshot served on GET /stats.
type Stats struct {
	Users   int `json:"users"`   // connected sessions
	Boards  int `json:"boards"`  // boards with at least one occupant
	Waiting int `json:"waiting"` // boards waiting for a white player
}
