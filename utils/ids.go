package utils

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewCommentID returns "c-<unix millis>-<random base36>". The random suffix keeps ids
// distinct when several comments are created within the same millisecond.
func NewCommentID(now time.Time) string {
	u := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(u[:8]), 36)
	return "c-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}
