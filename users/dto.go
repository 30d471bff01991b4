package users

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/asaidimu/go-roster/core/schema"
)

const (
	minPasswordLength = 4
	maxPasswordLength = 20
)

// CreateUserDto is the payload of a user registration.
type CreateUserDto struct {
	Email                string `json:"email" yaml:"email"`
	Name                 string `json:"name" yaml:"name"`
	Password             string `json:"password" yaml:"password"`
	PasswordConfirmation string `json:"password_confirmation" yaml:"password_confirmation"`
	Role                 Role   `json:"role,omitempty" yaml:"role,omitempty"`
	Bio                  string `json:"bio,omitempty" yaml:"bio,omitempty"`
	Avatar               string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

func issue(path, code, message string) schema.Issue {
	return schema.Issue{Code: code, Message: message, Path: path, Severity: "error"}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Validate returns the problems of the payload, if any.
func (d CreateUserDto) Validate() []schema.Issue {
	var issues []schema.Issue
	email := strings.TrimSpace(d.Email)
	switch {
	case email == "":
		issues = append(issues, issue("email", schema.IssueRequired, "email should not be empty"))
	case !validEmail(email):
		issues = append(issues, issue("email", schema.IssueFormat, "email must be an email"))
	}
	if strings.TrimSpace(d.Name) == "" {
		issues = append(issues, issue("name", schema.IssueRequired, "name should not be empty"))
	}
	if n := len(d.Password); n < minPasswordLength || n > maxPasswordLength {
		issues = append(issues, issue("password", "INVALID_LENGTH",
			fmt.Sprintf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)))
	}
	if d.PasswordConfirmation != d.Password {
		issues = append(issues, issue("password_confirmation", "MISMATCH", "password_confirmation must match password"))
	}
	if d.Role != "" && !d.Role.Valid() {
		issues = append(issues, issue("role", schema.IssueEnum, fmt.Sprintf("role must be one of %s, %s", RoleSuperAdmin, RoleUser)))
	}
	return issues
}

// UpdateUserDto is a partial update. Nil fields are left unchanged.
type UpdateUserDto struct {
	Email  *string `json:"email,omitempty" yaml:"email,omitempty"`
	Name   *string `json:"name,omitempty" yaml:"name,omitempty"`
	Status *Status `json:"status,omitempty" yaml:"status,omitempty"`
	Role   *Role   `json:"role,omitempty" yaml:"role,omitempty"`
}

// Validate returns the problems of the payload, if any.
func (d UpdateUserDto) Validate() []schema.Issue {
	var issues []schema.Issue
	if d.Email != nil && !validEmail(strings.TrimSpace(*d.Email)) {
		issues = append(issues, issue("email", schema.IssueFormat, "email must be an email"))
	}
	if d.Name != nil && strings.TrimSpace(*d.Name) == "" {
		issues = append(issues, issue("name", schema.IssueRequired, "name should not be empty"))
	}
	if d.Status != nil && !d.Status.Valid() {
		issues = append(issues, issue("status", schema.IssueEnum, fmt.Sprintf("status must be one of %s, %s", StatusCreated, StatusVerified)))
	}
	if d.Role != nil && !d.Role.Valid() {
		issues = append(issues, issue("role", schema.IssueEnum, fmt.Sprintf("role must be one of %s, %s", RoleSuperAdmin, RoleUser)))
	}
	return issues
}

// Empty reports whether the update changes nothing.
func (d UpdateUserDto) Empty() bool {
	return d.Email == nil && d.Name == nil && d.Status == nil && d.Role == nil
}

// UserResource is the public view of a user.
type UserResource struct {
	ID        int64            `json:"id" yaml:"id"`
	Email     string           `json:"email" yaml:"email"`
	Name      string           `json:"name" yaml:"name"`
	Role      Role             `json:"role" yaml:"role"`
	Status    Status           `json:"status" yaml:"status"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" yaml:"updated_at"`
	Profile   *ProfileResource `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// ProfileResource is the public view of a profile.
type ProfileResource struct {
	Avatar *string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Bio    *string `json:"bio,omitempty" yaml:"bio,omitempty"`
}

// NewUserResource builds the public view of u.
func NewUserResource(u User) UserResource {
	r := UserResource{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Profile != nil {
		r.Profile = &ProfileResource{Avatar: u.Profile.Avatar, Bio: u.Profile.Bio}
	}
	return r
}
