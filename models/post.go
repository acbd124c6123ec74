package models

import "strings"

// Post is a feed entry owned by the remote service. ID, Username and CreatedDatetime never change after creation.
type Post struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	CreatedDatetime string `json:"created_datetime"`
}

// OwnedBy reports whether username authored the post, ignoring case and surrounding space.
func (p Post) OwnedBy(username string) bool {
	name := strings.TrimSpace(username)
	if name == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(p.Username), name)
}

// Page is one page of the remote paginated post listing.
type Page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Post  `json:"results"`
}

// NextCursor returns the next page URL, or "" on the last page.
func (p Page) NextCursor() string {
	if p.Next == nil {
		return ""
	}
	return *p.Next
}
