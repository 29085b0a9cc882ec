package model

import "strings"

// FollowState is the tri-state relationship between the current user and
// another user.
type FollowState string

const (
	FollowNone      FollowState = "NONE"
	FollowPending   FollowState = "PENDING"
	FollowFollowing FollowState = "FOLLOWING"
)

var AllFollowState = []FollowState{
	FollowNone,
	FollowPending,
	FollowFollowing,
}

func (e FollowState) IsValid() bool {
	switch e {
	case FollowNone, FollowPending, FollowFollowing:
		return true
	}
	return false
}

func (e FollowState) String() string {
	return string(e)
}

// ParseFollowState maps anything the backend sends that is not a known state
// to FollowNone, which only ever offers the "follow" action.
func ParseFollowState(s string) FollowState {
	state := FollowState(strings.ToUpper(strings.TrimSpace(s)))
	if !state.IsValid() {
		return FollowNone
	}
	return state
}

// FollowStatusResponse is the body of GET /follow/status/{userId}.
type FollowStatusResponse struct {
	Status string `json:"status"`
}
