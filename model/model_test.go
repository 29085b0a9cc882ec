package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampAcceptsBackendLayouts(t *testing.T) {
	expected := time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)

	for _, raw := range []string{
		`"2024-05-01T10:20:30"`,
		`"2024-05-01T10:20:30Z"`,
		`"2024-05-01 10:20:30"`,
		`1714558830000`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, expected.Equal(ts.Time), "%s parsed as %s", raw, ts.Time)
	}
}

func TestTimestampNullAndEmpty(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	assert.True(t, ts.IsZero())
	assert.Equal(t, "", ts.Short())

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"not a date at all"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`true`), &ts))
}

func TestTimestampShort(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "May 1", ts.Short())
}

func TestParseFollowState(t *testing.T) {
	assert.Equal(t, FollowPending, ParseFollowState("PENDING"))
	assert.Equal(t, FollowFollowing, ParseFollowState(" following "))
	assert.Equal(t, FollowNone, ParseFollowState("NONE"))
	assert.Equal(t, FollowNone, ParseFollowState(""))
	assert.Equal(t, FollowNone, ParseFollowState("BLOCKED"))
}

func TestPostEntryNormalize(t *testing.T) {
	var entries []PostEntry
	raw := `[{"post":{"id":"p1","description":"hello","mediaPaths":["/uploads/a.png"],"createdAt":"2024-05-01T10:20:30"},
	          "user":{"id":"u1","username":"ada","email":"ada@example.com"}}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))

	posts := NormalizePosts(entries)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].Id)
	assert.Equal(t, "ada", posts[0].User.Username)
	assert.Equal(t, []string{"/uploads/a.png"}, posts[0].MediaPaths)
}

func TestUserSameAs(t *testing.T) {
	a := User{Id: "1", Email: "a@example.com"}
	assert.True(t, a.SameAs(User{Id: "1"}))
	assert.False(t, a.SameAs(User{Id: "2", Email: "a@example.com"}))
	assert.True(t, a.SameAs(User{Email: "a@example.com"}))
	assert.False(t, User{}.SameAs(User{}))
}

func TestMediaURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9090/uploads/a.png", MediaURL("http://localhost:9090", "/uploads/a.png"))
	assert.Equal(t, "https://cdn.example.com/a.png", MediaURL("http://localhost:9090", "https://cdn.example.com/a.png"))
	assert.Equal(t, "", MediaURL("http://localhost:9090", ""))
}
