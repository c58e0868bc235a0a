// Package storage puts uploaded files somewhere addressable and returns their public URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vaidashi/pool-dealer-portal/internal/config"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// Store saves a blob under key and returns the URL it can be fetched from
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// New builds the store selected by configuration
func New(cfg config.StorageConfig, logger logger.Logger) (Store, error) {
	switch cfg.Driver {
	case "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	case "http":
		return NewHTTPStore(cfg.HTTPEndpoint, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Key builds a unique object key such as orders/ord_1/3f2c...-invoice.pdf
func Key(parts ...string) string {
	if len(parts) == 0 {
		return uuid.NewString()
	}
	last := len(parts) - 1
	clean := make([]string, 0, len(parts))
	for _, p := range parts[:last] {
		clean = append(clean, sanitize(p))
	}
	clean = append(clean, uuid.NewString()+"-"+sanitize(parts[last]))
	return path.Join(clean...)
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 || name == "." || name == "/" {
		return "file"
	}
	return b.String()
}
