package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Roles known to the board.
const (
	RoleAdministrator = "Administrator"
	RoleUser          = "User"
)

// User is a board member. Token is an opaque bearer credential issued
// elsewhere; it is never serialized.
type User struct {
	ID       int64  `json:"userId" db:"id"`
	Name     string `json:"name" db:"name"`
	Username string `json:"username" db:"username"`
	Role     string `json:"role" db:"role"`
	Token    string `json:"-" db:"token"`
}

// TableName returns the database table name for User.
func (u User) TableName() string {
	return tablePrefix + "user"
}

// NewUser creates a new, not yet persisted user.
func NewUser(name, username, role, token string) User {
	return User{
		Name:     name,
		Username: username,
		Role:     role,
		Token:    token,
	}
}

// HasRole reports whether the user holds role.
func (u User) HasRole(role string) bool {
	return u.Role == role
}

// Validate checks the user fields.
func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Name, validation.RuneLength(0, maxTextLength)),
		validation.Field(&u.Username, validation.Required, validation.RuneLength(1, maxTextLength)),
		validation.Field(&u.Role, validation.Required, validation.In(RoleAdministrator, RoleUser)),
		validation.Field(&u.Token, validation.Required, validation.RuneLength(1, maxTextLength)),
	)
}
