package models

// Comment lives only in the local overlay. A non-empty ParentID makes it a reply.
type Comment struct {
	ID              string `json:"id"`
	PostID          int64  `json:"post_id,omitempty"`
	Username        string `json:"username"`
	Content         string `json:"content"`
	CreatedDatetime string `json:"created_datetime"`
	ParentID        string `json:"parentId,omitempty"`
}

// IsReply reports whether the comment answers another comment.
func (c Comment) IsReply() bool {
	return c.ParentID != ""
}
