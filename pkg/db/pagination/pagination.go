package pagination

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=50"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

// Limit clamps the requested page size to a sane range.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return 50
	}
	if p.PageSize > 250 {
		return 250
	}
	return p.PageSize
}
