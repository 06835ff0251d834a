// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// WHY PasswordHash HAS json:"-"?
// The struct is returned by repositories and sometimes handed straight to
// writeJSON. The "-" tag guarantees the bcrypt hash can never end up in a
// response body, even if a handler forgets to project it into a UserView.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// UserView is the public projection of a User: {id, username, email}.
type UserView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// View returns the public projection of u.
func (u *User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username, Email: u.Email}
}
