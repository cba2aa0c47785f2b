package tally

import (
	"context"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/xraph/tally/document"
)

// MinPasswordLength is the shortest operator password ChangePassword accepts.
const MinPasswordLength = 4

// VerifyPassword reports whether pw is the operator password. A password
// still stored in plain text is upgraded to a bcrypt hash on the first
// successful check.
func (t *Tally) VerifyPassword(ctx context.Context, pw string) (bool, error) {
	var stored string
	if err := t.read(func(doc *document.Document) error {
		stored = doc.Password
		return nil
	}); err != nil {
		return false, err
	}

	if isHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pw)) == nil, nil
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(pw)) != 1 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		t.logger.Warn("failed to hash legacy password", "error", err)
		return true, nil
	}
	if err := t.write(ctx, "password.upgrade", func(doc *document.Document) (func(), error) {
		if doc.Password != stored {
			return nil, errUnchanged
		}
		doc.Password = string(hash)
		return nil, nil
	}); err != nil {
		t.logger.Warn("failed to upgrade legacy password", "error", err)
	}
	return true, nil
}

// ChangePassword stores a new operator password as a bcrypt hash.
func (t *Tally) ChangePassword(ctx context.Context, pw string) error {
	if len(pw) < MinPasswordLength {
		return ValidationError{Field: "password", Message: "must be at least 4 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return t.write(ctx, "password.change", func(doc *document.Document) (func(), error) {
		doc.Password = string(hash)
		return func() {
			t.logger.Info("operator password changed")
		}, nil
	})
}

func isHashed(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}
