package models

import "time"

// Session is a server-side login session. One session is counted as one active user.
type Session struct {
	Key       string    `json:"-" gorm:"primaryKey;size:64"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Remember  bool      `json:"remember"`
	ExpireAt  time.Time `json:"expire_at" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the session has not expired at now
func (s *Session) Active(now time.Time) bool {
	return s.ExpireAt.After(now)
}
