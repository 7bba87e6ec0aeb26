package db

import (
	"context"
	"encoding/base64"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/onnwee/al/crypto"
	"github.com/onnwee/al/model"
)

func newSealer(t *testing.T, b byte) *crypto.AESSealer {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = b
	}
	s, err := crypto.NewAESSealer(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSealedStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir(), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	store := NewSealedStore(fs, newSealer(t, 3))
	users := model.Users{
		"bob":   {Email: "bob@example.com", Phone: "555-0100", Points: 4},
		"carol": {Points: 1},
	}
	if err := store.SaveUsers(ctx, users); err != nil {
		t.Fatalf("SaveUsers: %v", err)
	}

	raw, err := os.ReadFile(fs.Path(KindUsers))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "bob@example.com") || strings.Contains(string(raw), "555-0100") {
		t.Fatalf("contact details stored in the clear:\n%s", raw)
	}
	if !strings.Contains(string(raw), crypto.SealedPrefix) {
		t.Fatalf("no sealed values in file:\n%s", raw)
	}

	if got := store.LoadUsers(ctx); !reflect.DeepEqual(got, users) {
		t.Fatalf("LoadUsers = %+v, want %+v", got, users)
	}
	if users["bob"].Email != "bob@example.com" {
		t.Fatal("SaveUsers modified its argument")
	}
}

func TestSealedStoreReadsLegacyPlaintext(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir(), "json")
	if err != nil {
		t.Fatal(err)
	}
	legacy := model.Users{"bob": {Email: "bob@example.com"}}
	if err := fs.SaveUsers(ctx, legacy); err != nil {
		t.Fatal(err)
	}
	store := NewSealedStore(fs, newSealer(t, 3))
	if got := store.LoadUsers(ctx); !reflect.DeepEqual(got, legacy) {
		t.Fatalf("LoadUsers = %+v", got)
	}
}

func TestSealedStoreWrongKeyClearsField(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir(), "json")
	if err != nil {
		t.Fatal(err)
	}
	if err := NewSealedStore(fs, newSealer(t, 3)).SaveUsers(ctx, model.Users{"bob": {Email: "bob@example.com", Points: 2}}); err != nil {
		t.Fatal(err)
	}
	got := NewSealedStore(fs, newSealer(t, 9)).LoadUsers(ctx)
	if got["bob"] != (model.UserRecord{Points: 2}) {
		t.Fatalf("bob = %+v", got["bob"])
	}
}
