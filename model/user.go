package model

// User is the identity anchor for authorship and ownership checks. The
// backend embeds it next to every post, comment and status it returns.
type User struct {
	Id           string `json:"id,omitempty"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
}

// SameAs reports whether u and other denote the same account. Ids win when
// both sides carry one, otherwise emails are compared, since locally built
// comment envelopes only know the current user's email.
func (u User) SameAs(other User) bool {
	if u.Id != "" && other.Id != "" {
		return u.Id == other.Id
	}
	return u.Email != "" && u.Email == other.Email
}

func (u User) IsZero() bool {
	return u.Id == "" && u.Email == "" && u.Username == ""
}
