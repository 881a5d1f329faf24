package model

import "time"

// Session is the portal's belief about who is logged in and until when,
// derived from the remote login service's signed token. A Session is valid
// iff the current time is before ExpiresAt; an expired Session is discarded
// entirely and indistinguishable from never-logged-in except for a one-time
// expiry notice.
type Session struct {
	Token     string    `json:"-"`
	Role      Role      `json:"role"`
	SubjectID string    `json:"subjectId"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ValidAt reports whether the session is still live at the given instant.
func (s *Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// StoredCredential is the persisted form of a session: the raw token string
// plus the decoded fields, stored under the browser session key. Only the
// session manager writes these rows.
type StoredCredential struct {
	Key       string    `db:"key" json:"key"`
	Token     string    `db:"token" json:"token"`
	Role      Role      `db:"role" json:"role"`
	SubjectID string    `db:"subject_id" json:"subjectId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
