package request

// CreateGuestRequest is the request body for creating a guest user
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateMatchRequest is the request body for starting a match
type CreateMatchRequest struct {
	Players    []string `json:"players"`
	FoulPolicy string   `json:"foul_policy,omitempty"`
}

// PotRequest credits either a number of points or a named ball
type PotRequest struct {
	Points *int   `json:"points,omitempty"`
	Ball   string `json:"ball,omitempty"`
}

// FoulRequest gives the penalty directly or the ball it was committed on.
// Penalty may be sent as a positive magnitude.
type FoulRequest struct {
	Penalty *int   `json:"penalty,omitempty"`
	Ball    string `json:"ball,omitempty"`
}

// PlayerRequest is the request body for adding or renaming a player
type PlayerRequest struct {
	Name string `json:"name"`
}
