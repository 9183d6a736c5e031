package github

// CreateCommentRequest is the payload for the create-review-comment API.
// Side is always RIGHT: findings refer to the head revision of the PR.
type CreateCommentRequest struct {
	Body     string `json:"body"`
	CommitID string `json:"commit_id"`
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Side     string `json:"side"`
}

// CreateCommentResponse is the subset of the response this client reads.
type CreateCommentResponse struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
	Path    string `json:"path"`
	Line    int    `json:"line"`
}

// errorResponse is the GitHub API error body shape.
type errorResponse struct {
	Message string `json:"message"`
	Errors  []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
	} `json:"errors"`
}
