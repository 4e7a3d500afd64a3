package handlers

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PresenceResponse is the body of GET /api/presence.
type PresenceResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}
