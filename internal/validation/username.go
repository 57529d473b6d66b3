package validation

import (
	"errors"
	"strings"
)

// ValidateUsername validates an account handle.
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)

	if trimmed == "" {
		return errors.New("username is required")
	}

	if len(trimmed) < 3 {
		return errors.New("username must be at least 3 characters")
	}

	if len(trimmed) > 50 {
		return errors.New("username is too long (max 50 characters)")
	}

	if strings.ContainsAny(trimmed, " \t@/") {
		return errors.New("username must not contain spaces, '@' or '/'")
	}

	return nil
}

// ValidateFolderName validates a folder display name.
func ValidateFolderName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("folder name is required")
	}

	if len(trimmed) > 255 {
		return errors.New("folder name is too long (max 255 characters)")
	}

	if strings.ContainsAny(trimmed, "/\x00") {
		return errors.New("folder name must not contain '/'")
	}

	return nil
}
