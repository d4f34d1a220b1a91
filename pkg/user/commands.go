package user

import "github.com/google/uuid"

// CreateUser registers a user. Password is optional.
type CreateUser struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	UserName string    `json:"userName"`
	Password string    `json:"password,omitempty"`
}

type ChangeUserEmail struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type SetUserPassword struct {
	ID       uuid.UUID `json:"id"`
	Password string    `json:"password"`
}

type DeleteUser struct {
	ID uuid.UUID `json:"id"`
}

func (CreateUser) CommandType() string      { return "user.create" }
func (ChangeUserEmail) CommandType() string { return "user.change_email" }
func (SetUserPassword) CommandType() string { return "user.set_password" }
func (DeleteUser) CommandType() string      { return "user.delete" }
