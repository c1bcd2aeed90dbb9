package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

// Workspace keeps every project under <root>/<project_id> with one directory per stage.
type Workspace struct {
	root string
}

func New(root string) (*Workspace, error) {
	if root == "" {
		root = "./projects"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve projects root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create projects root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

func (w *Workspace) Root() string { return w.root }

func (w *Workspace) Layout(projectID string) domain.ProjectLayout {
	return domain.NewProjectLayout(w.root, projectID)
}

func (w *Workspace) Ensure(_ context.Context, projectID string) error {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return err
	}
	for _, dir := range w.Layout(projectID).Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create stage dir: %w", err)
		}
	}
	return nil
}

func (w *Workspace) ReadText(_ context.Context, path string) (string, error) {
	if err := w.contains(path); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(raw), nil
}

// WriteText replaces the file through a temporary sibling so readers never see a partial write.
func (w *Workspace) WriteText(_ context.Context, path, content string) error {
	if err := w.contains(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

// List returns the regular files of dir sorted by name, optionally filtered by lower-case
// extensions. A missing dir lists as empty.
func (w *Workspace) List(_ context.Context, dir string, exts ...string) ([]string, error) {
	if err := w.contains(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var out []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if len(exts) > 0 && !matchesExt(entry.Name(), exts) {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	return out, nil
}

func matchesExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range exts {
		if ext == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

func (w *Workspace) Exists(path string) bool {
	if w.contains(path) != nil {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes one file; a missing file is not an error.
func (w *Workspace) Remove(_ context.Context, path string) error {
	if err := w.contains(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (w *Workspace) SaveRaw(_ context.Context, projectID, filename string, body io.Reader) (string, error) {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return "", err
	}
	dir := w.Layout(projectID).RawDocsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create raw docs dir: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// Purge deletes every stage directory of the project and recreates it empty. Nested
// directories come back on the next Ensure or write. Files directly under the project root,
// such as the completion marker, are kept.
func (w *Workspace) Purge(_ context.Context, projectID string) error {
	if err := domain.ValidateProjectID(projectID); err != nil {
		return err
	}
	layout := w.Layout(projectID)
	if _, err := os.Stat(layout.Root); err != nil {
		return domain.WrapError(domain.ErrProjectNotFound, "purge project", err)
	}

	var errs []error
	for _, name := range domain.StageDirs {
		if err := os.RemoveAll(layout.StageDir(name)); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	for _, name := range domain.StageDirs {
		if err := os.MkdirAll(layout.StageDir(name), 0o755); err != nil {
			return fmt.Errorf("recreate %s: %w", name, err)
		}
	}
	return nil
}

func (w *Workspace) contains(path string) error {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return domain.WrapError(domain.ErrInvalidInput, "resolve path", fmt.Errorf("%s is outside the projects root", path))
	}
	return nil
}
