package main

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	guard "github.com/goliatone/go-route-guard"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrMismatchedHashAndPassword is returned on a bad password
var ErrMismatchedHashAndPassword = goerrors.New("username or password mismatch", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("DEMO_BAD_CREDENTIALS")

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password can not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

const demoPassword = "campus"

// hashPassword will generate a password hash
func hashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(h), err
}

// comparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func comparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// directory is the in memory account list the login form checks
type directory struct {
	users map[string]userRecord
	// dummy keeps failed lookups as slow as bad passwords
	dummy string
}

func newDirectory(records []userRecord) (*directory, error) {
	if len(records) == 0 {
		var err error
		if records, err = defaultUsers(); err != nil {
			return nil, err
		}
	}

	dummy, err := hashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	d := &directory{users: make(map[string]userRecord, len(records)), dummy: dummy}
	for _, rec := range records {
		if rec.Username == "" || rec.PasswordHash == "" {
			return nil, fmt.Errorf("user %q needs a username and a password hash", rec.Username)
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		d.users[rec.Username] = rec
	}
	return d, nil
}

// defaultUsers has one account per role plus the legacy guard alias and
// one account without a known role, all sharing the demo password.
func defaultUsers() ([]userRecord, error) {
	hash, err := hashPassword(demoPassword)
	if err != nil {
		return nil, err
	}

	records := make([]userRecord, 0, 5)
	for _, role := range []string{"student", "admin", "security", "guard", "visitor"} {
		records = append(records, userRecord{
			ID:           uuid.NewString(),
			Username:     role,
			PasswordHash: hash,
			Role:         role,
		})
	}
	return records, nil
}

// Authenticate checks the password and returns the session user
func (d *directory) Authenticate(_ context.Context, username, password string) (*guard.User, error) {
	rec, ok := d.users[username]
	if !ok {
		_ = comparePasswordAndHash(password, d.dummy)
		return nil, ErrMismatchedHashAndPassword
	}

	if err := comparePasswordAndHash(password, rec.PasswordHash); err != nil {
		return nil, err
	}

	return &guard.User{
		ID:       rec.ID,
		Username: rec.Username,
		Role:     rec.Role,
	}, nil
}
