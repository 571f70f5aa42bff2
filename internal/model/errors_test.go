package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewUsernameTakenError()
	want := "[USERNAME_TAKEN] Username already exists."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAppError_ErrorsAsThroughWrap(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", NewWeakPasswordError("missing a digit"))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("expected errors.As to find *AppError")
	}
	if appErr.Code != ErrCodeWeakPassword {
		t.Errorf("Code = %q, want %q", appErr.Code, ErrCodeWeakPassword)
	}
	if !appErr.IsValidation() {
		t.Error("weak password should be a validation error")
	}
}

func TestNewInvalidCredentialsError_IsAuthCategory(t *testing.T) {
	err := NewInvalidCredentialsError()
	if err.Category != CategoryAuth {
		t.Errorf("Category = %q, want %q", err.Category, CategoryAuth)
	}
	if err.IsValidation() {
		t.Error("invalid credentials should not be a validation error")
	}
}

// 認証失敗のメッセージは常に同一であること
func TestNewInvalidCredentialsError_StableMessage(t *testing.T) {
	a := NewInvalidCredentialsError()
	b := NewInvalidCredentialsError()
	if a.Message != b.Message {
		t.Errorf("messages differ: %q vs %q", a.Message, b.Message)
	}
}
