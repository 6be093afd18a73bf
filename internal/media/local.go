package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sujalbistaa/yatube/internal/logger"
)

// LocalStorage writes images below a directory served under URLPrefix.
type LocalStorage struct {
	basePath  string
	urlPrefix string
}

func NewLocalStorage(basePath, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root is the directory files are written to.
func (s *LocalStorage) Root() string {
	return s.basePath
}

func (s *LocalStorage) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	clean := path.Clean("/" + key)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}

	logger.Log.Info("image stored", zap.String("path", fullPath))
	return s.urlPrefix + clean, nil
}
