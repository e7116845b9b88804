package models

// Envelope wraps every non-error response.
type Envelope struct {
	Data     any `json:"data"`
	Metadata any `json:"metadata"`
}

// Counts is the metadata of single-record responses.
type Counts struct {
	TotalItems int `json:"total_items"`
}

// Pagination is the metadata of list responses. Absent page links encode as null.
type Pagination struct {
	TotalItems  int     `json:"total_items"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
	PerPage     int     `json:"per_page"`
	FirstPage   *string `json:"first_page"`
	LastPage    *string `json:"last_page"`
	NextPage    *string `json:"next_page"`
	PrevPage    *string `json:"prev_page"`
}
