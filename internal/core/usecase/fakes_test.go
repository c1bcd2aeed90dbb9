package usecase

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
)

const testProjectsRoot = "/projects"

type memWorkspace struct {
	mu        sync.Mutex
	files     map[string]string
	writeErrs map[string]error
	ensureErr error
	purgeErr  error
	purged    []string
}

func newMemWorkspace() *memWorkspace {
	return &memWorkspace{files: map[string]string{}, writeErrs: map[string]error{}}
}

func (w *memWorkspace) Layout(projectID string) domain.ProjectLayout {
	return domain.NewProjectLayout(testProjectsRoot, projectID)
}

func (w *memWorkspace) Ensure(_ context.Context, projectID string) error {
	if w.ensureErr != nil {
		return w.ensureErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[w.Layout(projectID).Root] = ""
	return nil
}

func (w *memWorkspace) ReadText(_ context.Context, path string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	text, ok := w.files[path]
	if !ok {
		return "", fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return text, nil
}

func (w *memWorkspace) WriteText(_ context.Context, path, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writeErrs[path]; err != nil {
		return err
	}
	w.files[path] = content
	return nil
}

func (w *memWorkspace) List(_ context.Context, dir string, exts ...string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for path := range w.files {
		if filepath.Dir(path) != dir {
			continue
		}
		if len(exts) > 0 && !hasExt(path, exts) {
			continue
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range exts {
		if ext == candidate {
			return true
		}
	}
	return false
}

func (w *memWorkspace) Exists(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		return true
	}
	for key := range w.files {
		if strings.HasPrefix(key, path+"/") {
			return true
		}
	}
	return false
}

func (w *memWorkspace) Remove(_ context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, path)
	return nil
}

func (w *memWorkspace) SaveRaw(_ context.Context, projectID, filename string, body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.Layout(projectID).RawDocsDir(), filename)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = string(raw)
	return path, nil
}

func (w *memWorkspace) Purge(_ context.Context, projectID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purged = append(w.purged, projectID)
	return w.purgeErr
}

func (w *memWorkspace) put(path, content string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = content
}

func (w *memWorkspace) get(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	text, ok := w.files[path]
	return text, ok
}

type generatorFake struct {
	answer  string
	err     error
	prompts []string
}

func (f *generatorFake) Ask(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type sheetReaderFake struct {
	rows [][]string
	err  error
}

func (f *sheetReaderFake) ReadSheet(context.Context, string, string) ([][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type standardizerFake struct {
	count int
	err   error
}

func (f *standardizerFake) Standardize(context.Context, string) (int, error) {
	return f.count, f.err
}

type chartFake struct {
	workspace *memWorkspace
	err       error
}

func (f *chartFake) RenderFinancialChart(_ context.Context, _ domain.FinancialSummary, outPath string) error {
	if f.err != nil {
		return f.err
	}
	f.workspace.put(outPath, "png")
	return nil
}

type writerFake struct {
	workspace *memWorkspace
	err       error
	written   *domain.Presentation
}

func (f *writerFake) Write(_ context.Context, pres *domain.Presentation, outPath string) error {
	if f.err != nil {
		return f.err
	}
	f.written = pres
	f.workspace.put(outPath, "pptx")
	return nil
}

type templateFake struct {
	tpl *domain.BrandTemplate
	err error
}

func (f *templateFake) Load(context.Context) (*domain.BrandTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tpl, nil
}

type ledgerFake struct {
	runs []*domain.PipelineRun
	err  error
}

func (f *ledgerFake) Record(_ context.Context, run *domain.PipelineRun) error {
	f.runs = append(f.runs, run)
	return f.err
}

func (f *ledgerFake) Latest(context.Context, string) (*domain.PipelineRun, error) {
	if len(f.runs) == 0 {
		return nil, domain.ErrProjectNotFound
	}
	return f.runs[len(f.runs)-1], nil
}

type notifierFake struct {
	published []string
	err       error
}

func (f *notifierFake) PublishRunCompleted(_ context.Context, run *domain.PipelineRun) error {
	f.published = append(f.published, run.ID)
	return f.err
}

type observerFake struct {
	mu     sync.Mutex
	stages []domain.StageResult
	runs   int
	purges []error
}

func (f *observerFake) ObserveStage(result domain.StageResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, result)
}

func (f *observerFake) ObserveRun(*domain.PipelineRun) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
}

func (f *observerFake) ObservePurge(_ string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purges = append(f.purges, err)
}

// testTemplate mirrors the built-in five-layout brand template.
func testTemplate() *domain.BrandTemplate {
	title := domain.LayoutSpec{Name: "Title Slide", Regions: []domain.RegionSpec{
		{Kind: domain.RegionTitle, Name: "Title", Box: domain.Box{X: domain.Inches(0.5), Y: domain.Inches(2), W: domain.Inches(9), H: domain.Inches(1.2)}},
		{Kind: domain.RegionSubtitle, Name: "Subtitle", Box: domain.Box{X: domain.Inches(0.5), Y: domain.Inches(3.4), W: domain.Inches(9), H: domain.Inches(0.8)}},
	}}
	content := func(name string) domain.LayoutSpec {
		return domain.LayoutSpec{Name: name, Regions: []domain.RegionSpec{
			{Kind: domain.RegionTitle, Name: "Title", Box: domain.Box{X: domain.Inches(0.5), Y: domain.Inches(0.3), W: domain.Inches(9), H: domain.Inches(1)}},
			{Kind: domain.RegionBody, Name: "Body", Box: domain.Box{X: domain.Inches(0.5), Y: domain.Inches(1.5), W: domain.Inches(9), H: domain.Inches(5)}},
		}}
	}
	return &domain.BrandTemplate{
		Name:        "test",
		SlideWidth:  domain.Inches(10),
		SlideHeight: domain.Inches(7.5),
		Layouts: []domain.LayoutSpec{
			title,
			content("Title and Content"),
			content("Section Header"),
			content("Content"),
			content("Financial"),
		},
	}
}
