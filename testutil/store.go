package testutil

import (
	"context"

	"github.com/onnwee/al/db"
	"github.com/onnwee/al/model"
)

// MemoryStore is an in-memory db.Store. Set SaveErr to make every save fail.
type MemoryStore struct {
	Users        model.Users
	Mentions     model.Mentions
	SaveErr      error
	UserSaves    int
	MentionSaves int
}

var _ db.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Users: model.Users{}, Mentions: model.Mentions{}}
}

func (m *MemoryStore) LoadUsers(context.Context) model.Users {
	if m.Users == nil {
		return model.Users{}
	}
	return m.Users.Clone()
}

func (m *MemoryStore) SaveUsers(_ context.Context, users model.Users) error {
	m.UserSaves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Users = users.Clone()
	return nil
}

func (m *MemoryStore) LoadMentions(context.Context) model.Mentions {
	if m.Mentions == nil {
		return model.Mentions{}
	}
	return m.Mentions.Clone()
}

func (m *MemoryStore) SaveMentions(_ context.Context, mentions model.Mentions) error {
	m.MentionSaves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Mentions = mentions.Clone()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
