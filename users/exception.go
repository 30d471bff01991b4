package users

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/asaidimu/go-roster/core/exception"
	"github.com/asaidimu/go-roster/core/schema"
)

const (
	CodeNotFoundByID      = 1
	CodeNotFoundByEmail   = 2
	CodeUsedEmail         = 2
	CodeInvalidPayload    = 3
	CodeIncorrectPassword = 4

	userNotFound = "User was not found"
)

var (
	// ErrEmailInUse is the cause of every UsedEmail exception.
	ErrEmailInUse = errors.New("email already in use")
	// ErrIncorrectPassword is the cause of every IncorrectPassword exception.
	ErrIncorrectPassword = errors.New("password is incorrect")
)

func NotFoundByID(id int64) *exception.Exception {
	return exception.New(http.StatusNotFound, CodeNotFoundByID, userNotFound,
		fmt.Sprintf("User with id %d was not found.", id))
}

func NotFoundByEmail(email string) *exception.Exception {
	return exception.New(http.StatusNotFound, CodeNotFoundByEmail, userNotFound,
		fmt.Sprintf("User with email %q was not found.", email))
}

func UsedEmail(email string) *exception.Exception {
	return exception.New(http.StatusBadRequest, CodeUsedEmail, "User Email already exists",
		fmt.Sprintf("Email %q is used by another user.", email)).WithCause(ErrEmailInUse)
}

// InvalidPayload reports a request body that failed validation. The issue
// paths are part of the public message.
func InvalidPayload(issues []schema.Issue) *exception.Exception {
	parts := make([]string, len(issues))
	for i, is := range issues {
		parts[i] = is.Message
	}
	return exception.New(http.StatusBadRequest, CodeInvalidPayload, "Invalid payload: "+strings.Join(parts, "; "), "")
}

func IncorrectPassword() *exception.Exception {
	return exception.New(http.StatusUnauthorized, CodeIncorrectPassword, "Password is incorrect.", "").
		WithCause(ErrIncorrectPassword)
}
