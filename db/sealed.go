package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/onnwee/al/crypto"
	"github.com/onnwee/al/model"
)

// SealedStore wraps a Store so that user emails and phone numbers are
// sealed before they reach it and opened as they are loaded. Mentions pass
// through unchanged.
type SealedStore struct {
	Store
	sealer crypto.Sealer
}

// NewSealedStore wraps inner with sealer.
func NewSealedStore(inner Store, sealer crypto.Sealer) *SealedStore {
	return &SealedStore{Store: inner, sealer: sealer}
}

// LoadUsers opens every sealed field. A field that fails to open is
// cleared and logged; the rest of the record is kept.
func (s *SealedStore) LoadUsers(ctx context.Context) model.Users {
	users := s.Store.LoadUsers(ctx)
	for handle, rec := range users {
		email, err := s.sealer.Open(rec.Email)
		if err != nil {
			slog.Warn("could not open sealed email", slog.String("handle", handle), slog.Any("err", err), slog.String("component", "db"))
		}
		phone, err := s.sealer.Open(rec.Phone)
		if err != nil {
			slog.Warn("could not open sealed phone", slog.String("handle", handle), slog.Any("err", err), slog.String("component", "db"))
		}
		rec.Email, rec.Phone = email, phone
		users[handle] = rec
	}
	return users
}

// SaveUsers seals a copy of users and saves it.
func (s *SealedStore) SaveUsers(ctx context.Context, users model.Users) error {
	sealed := make(model.Users, len(users))
	for handle, rec := range users {
		email, err := s.sealer.Seal(rec.Email)
		if err != nil {
			return fmt.Errorf("seal email for %s: %w", handle, err)
		}
		phone, err := s.sealer.Seal(rec.Phone)
		if err != nil {
			return fmt.Errorf("seal phone for %s: %w", handle, err)
		}
		rec.Email, rec.Phone = email, phone
		sealed[handle] = rec
	}
	return s.Store.SaveUsers(ctx, sealed)
}
