package feed

import "errors"

var (
	ErrNoIdentity    = errors.New("choose a display name before posting")
	ErrInvalidPost   = errors.New("title and content are required")
	ErrEmptyComment  = errors.New("comment cannot be empty")
	ErrPostNotFound  = errors.New("post not found")
	ErrNotOwner      = errors.New("only the author can change this post")
	ErrTooManyPages  = errors.New("feed has more pages than allowed")
	ErrBadNextCursor = errors.New("feed returned a next page outside its collection")
	ErrNotImage      = errors.New("only image files can be attached")
	ErrMediaTooLarge = errors.New("image must be 2MB or smaller")
)
