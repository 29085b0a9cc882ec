package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

// Timestamp accepts every date layout the backend has been seen to emit:
// zone-less ISO local date times ("2024-05-01T10:20:30.123"), RFC3339 strings
// and unix milliseconds. Zone-less values are read as UTC.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if b[0] != '"' {
		millis, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return errors.Wrapf(err, "timestamp %s is neither a string nor unix millis", b)
		}
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return errors.Wrap(err, "fail to parse timestamp "+s)
	}
	t.Time = parsed.UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Short renders the date the way the feed cards do, e.g. "May 1".
func (t Timestamp) Short() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2")
}
