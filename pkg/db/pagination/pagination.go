package pagination

import (
	"encoding/base64"
	"encoding/json"
)

// Pagination carries cursor paging parameters bound from the query string.
type Pagination struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit,default=25" validate:"gte=1,lte=250"`
}

// Cursor is the opaque continuation token payload. Positions are keyed by
// creation time with the row id as tiebreaker.
type Cursor struct {
	CreatedAt string `json:"created_at,omitempty"`
	ID        string `json:"id,omitempty"`
}

type PageInfo struct {
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

func EncodeCursor(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeCursor(token string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Page trims an over-fetched result set (limit+1 rows) to the page size and
// derives the continuation token from the last row kept.
func Page[T any](rows []*T, limit int, cursorFor func(*T) Cursor) ([]*T, *PageInfo, error) {
	if len(rows) == 0 {
		return rows, &PageInfo{}, nil
	}

	info := &PageInfo{}
	if len(rows) > limit {
		info.HasMore = true
		rows = rows[:limit]
	}

	token, err := EncodeCursor(cursorFor(rows[len(rows)-1]))
	if err != nil {
		return nil, nil, err
	}
	info.NextCursor = token

	return rows, info, nil
}
