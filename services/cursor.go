package services

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Chat pagination cursors are opaque to clients. Internally a cursor is
// the (timestamp, id) position of a message already seen, so it stays
// stable while new messages are appended concurrently.

func encodeCursor(ts time.Time, id string) string {
	raw := fmt.Sprintf("%d:%s", ts.UnixNano(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", validationErrorf("malformed cursor")
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, "", validationErrorf("malformed cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", validationErrorf("malformed cursor")
	}
	return time.Unix(0, nanos), parts[1], nil
}
