package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kirillkom/deck-pipeline/internal/core/ports"
)

// Generator memoizes another generator on disk, one file per prompt named by the SHA-256 of
// the prompt. Cache read and write failures degrade to a direct call.
type Generator struct {
	next   ports.TextGenerator
	dir    string
	logger *slog.Logger
}

func New(next ports.TextGenerator, dir string, logger *slog.Logger) (*Generator, error) {
	if dir == "" {
		dir = ".llm_cache"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create llm cache dir: %w", err)
	}
	return &Generator{next: next, dir: dir, logger: logger}, nil
}

func (g *Generator) Ask(ctx context.Context, prompt string) (string, error) {
	path := g.path(prompt)
	cached, err := os.ReadFile(path)
	if err == nil {
		return string(cached), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		g.logger.Warn("llm_cache_read_failed", "path", path, "error", err)
	}

	answer, err := g.next.Ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := g.store(path, answer); err != nil {
		g.logger.Warn("llm_cache_write_failed", "path", path, "error", err)
	}
	return answer, nil
}

func (g *Generator) path(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return filepath.Join(g.dir, hex.EncodeToString(sum[:])+".txt")
}

func (g *Generator) store(path, answer string) error {
	tmp, err := os.CreateTemp(g.dir, ".answer.*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(answer); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
