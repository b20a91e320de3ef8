// Package fs stores credential records as JSON files, one file per
// email, suitable for development and tests. The exclusive-create flag
// on insert is the uniqueness constraint: of two concurrent inserts for
// the same email, exactly one wins and the other sees ErrEmailTaken.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/panyam/secrets"
)

type userRecord struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Credential string    `json:"credential"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserStore implements secrets.CredentialStore on the local filesystem.
type UserStore struct {
	StoragePath string
}

func NewUserStore(storagePath string) *UserStore {
	return &UserStore{StoragePath: storagePath}
}

// userPath maps an email to a file name. Emails are opaque text and can
// be arbitrarily long, so the name is a digest of the bytes rather than
// an encoding of them; the email itself lives inside the record.
func (s *UserStore) userPath(email string) string {
	sum := sha256.Sum256([]byte(email))
	return filepath.Join(s.StoragePath, "users", hex.EncodeToString(sum[:])+".json")
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*secrets.User, error) {
	data, err := os.ReadFile(s.userPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read user record: %w", err)
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode user record: %w", err)
	}
	return &secrets.User{ID: rec.ID, Email: rec.Email, Credential: rec.Credential}, nil
}

func (s *UserStore) Insert(ctx context.Context, email, credential string) (*secrets.User, error) {
	path := s.userPath(email)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	rec := userRecord{
		ID:         uuid.New().String(),
		Email:      email,
		Credential: credential,
		CreatedAt:  time.Now(),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, secrets.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user record: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write user record: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write user record: %w", err)
	}

	return &secrets.User{ID: rec.ID, Email: rec.Email, Credential: rec.Credential}, nil
}
