package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/onnwee/al/model"
)

const (
	ledgerDirMode  = 0o700
	ledgerFileMode = 0o600
)

type codec interface {
	name() string
	marshal(v any) ([]byte, error)
	unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) name() string                       { return "json" }
func (jsonCodec) marshal(v any) ([]byte, error)      { return json.MarshalIndent(v, "", "  ") }
func (jsonCodec) unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type tomlCodec struct{}

func (tomlCodec) name() string                       { return "toml" }
func (tomlCodec) marshal(v any) ([]byte, error)      { return toml.Marshal(v) }
func (tomlCodec) unmarshal(data []byte, v any) error { return toml.Unmarshal(data, v) }

type yamlCodec struct{}

func (yamlCodec) name() string                       { return "yaml" }
func (yamlCodec) marshal(v any) ([]byte, error)      { return yaml.Marshal(v) }
func (yamlCodec) unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

func codecFor(format string) (codec, error) {
	switch format {
	case "", "json":
		return jsonCodec{}, nil
	case "toml":
		return tomlCodec{}, nil
	case "yaml", "yml":
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown ledger format %q", format)
	}
}

// FileStore keeps each record set in its own file under a directory.
// Writes go through a temp file and a rename so a crash mid-write leaves the
// previous contents in place.
type FileStore struct {
	dir   string
	codec codec
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir, format string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("ledger dir is empty")
	}
	c, err := codecFor(format)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve ledger dir: %w", err)
	}
	return &FileStore{dir: filepath.Clean(abs), codec: c}, nil
}

// Path returns the file backing the given record set.
func (s *FileStore) Path(kind Kind) string {
	return filepath.Join(s.dir, string(kind)+"."+s.codec.name())
}

func (s *FileStore) LoadUsers(ctx context.Context) model.Users {
	users := model.Users{}
	if err := s.read(ctx, KindUsers, &users); err != nil {
		loadFailed(KindUsers, "file", err)
		return model.Users{}
	}
	if users == nil {
		users = model.Users{}
	}
	return users
}

func (s *FileStore) SaveUsers(ctx context.Context, users model.Users) error {
	if users == nil {
		users = model.Users{}
	}
	return s.write(ctx, KindUsers, users)
}

func (s *FileStore) LoadMentions(ctx context.Context) model.Mentions {
	mentions := model.Mentions{}
	if err := s.read(ctx, KindMentions, &mentions); err != nil {
		loadFailed(KindMentions, "file", err)
		return model.Mentions{}
	}
	return mentions.Clone()
}

func (s *FileStore) SaveMentions(ctx context.Context, mentions model.Mentions) error {
	return s.write(ctx, KindMentions, mentions.Clone())
}

// Close is a no-op; files are closed after every write.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read(ctx context.Context, kind Kind, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(s.Path(kind))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("ledger file missing, starting empty", slog.String("kind", string(kind)), slog.String("component", "db"))
			return nil
		}
		return fmt.Errorf("read %s file: %w", kind, err)
	}
	if err := s.codec.unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s file: %w", kind, err)
	}
	return nil
}

func (s *FileStore) write(ctx context.Context, kind Kind, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, ledgerDirMode); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	data, err := s.codec.marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s file: %w", kind, err)
	}

	tempFile, err := os.CreateTemp(s.dir, "."+string(kind)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp %s file: %w", kind, err)
	}
	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp %s file: %w", kind, err)
	}
	if err := tempFile.Chmod(ledgerFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp %s file: %w", kind, err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp %s file: %w", kind, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp %s file: %w", kind, err)
	}
	if err := os.Rename(tempName, s.Path(kind)); err != nil {
		return fmt.Errorf("replace %s file: %w", kind, err)
	}
	cleanup = false
	return nil
}
