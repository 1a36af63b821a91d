package domain

// Session is the caller-supplied context of a backend call.
type Session struct {
	Token  string
	OrgID  ID
	UserID ID
}

// Pagination mirrors whatever the last fetch returned; it is never recomputed locally.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
}
