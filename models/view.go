package models

// Segment is a run of post or comment text; Mention marks an @username span.
type Segment struct {
	Text    string `json:"text"`
	Mention bool   `json:"mention,omitempty"`
}

// CommentView is a comment joined with its like set for one viewer.
type CommentView struct {
	Comment
	LikeCount int           `json:"like_count"`
	LikedByMe bool          `json:"liked_by_me"`
	Segments  []Segment     `json:"segments"`
	Replies   []CommentView `json:"replies,omitempty"`
}

// PostView is a remote post merged with the local overlay for display.
type PostView struct {
	Post
	LikeCount    int           `json:"like_count"`
	LikedByMe    bool          `json:"liked_by_me"`
	IsOwn        bool          `json:"is_own"`
	Media        string        `json:"media,omitempty"`
	CommentCount int           `json:"comment_count"`
	Comments     []CommentView `json:"comments"`
	Segments     []Segment     `json:"segments"`
}
