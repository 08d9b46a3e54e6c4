package persist

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/stateart/internal/config"
	"github.com/vango-dev/stateart/internal/errors"
	"github.com/vango-dev/stateart/pkg/stateart"
)

// ErrNotFound is returned by Load for keys without a snapshot.
var ErrNotFound = stateart.ErrNotFound

// Backend is a closable snapshot storage.
type Backend interface {
	stateart.Storage
	io.Closer
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*File)(nil)
	_ Backend = (*Bolt)(nil)
	_ Backend = (*SQLite)(nil)
	_ Backend = (*S3)(nil)
)

// Open creates the backend selected by cfg.Persist.Backend. Relative paths
// resolve against the configuration file directory.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	p := cfg.Persist
	switch p.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return OpenFile(cfg.ResolvePath(p.Dir))
	case "bolt":
		return OpenBolt(cfg.ResolvePath(p.Path))
	case "sqlite":
		return OpenSQLite(ctx, cfg.ResolvePath(p.Path))
	case "s3":
		return OpenS3(p)
	default:
		return nil, errors.New("E084").WithDetailf("backend %q", p.Backend)
	}
}

// checkKey rejects keys that cannot be stored portably across backends.
func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("persist: key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("persist: invalid key %q", key)
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
