package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateProjectID rejects ids that could escape the projects root.
func ValidateProjectID(projectID string) error {
	if !projectIDPattern.MatchString(projectID) {
		return WrapError(ErrInvalidInput, "validate project id", fmt.Errorf("invalid project id %q", projectID))
	}
	return nil
}

var errEmptyAudience = errors.New("audience is required")

// ValidateAudience applies the project id rules to the audience, which becomes part of the
// artifact file name.
func ValidateAudience(audience string) error {
	if audience == "" {
		return WrapError(ErrInvalidInput, "validate audience", errEmptyAudience)
	}
	if !projectIDPattern.MatchString(audience) {
		return WrapError(ErrInvalidInput, "validate audience", fmt.Errorf("invalid audience %q", audience))
	}
	return nil
}

// Stage directories, relative to the project root. Purge removes and recreates exactly these.
const (
	DirRawDocs      = "raw_docs"
	DirStandardized = "standardized"
	DirInsights     = "insights"
	DirReasoning    = "reasoning"
	DirMemo         = "memo"
	DirFinancial    = "financial"
	DirDeck         = "deck"
	DirOutputs      = "outputs"
)

var StageDirs = []string{
	DirRawDocs,
	DirStandardized,
	DirInsights,
	DirReasoning,
	DirMemo,
	DirFinancial,
	DirDeck,
	DirOutputs,
}

// ProjectLayout computes the stable artifact paths of one project.
type ProjectLayout struct {
	ProjectID string
	Root      string
}

func NewProjectLayout(projectsRoot, projectID string) ProjectLayout {
	return ProjectLayout{
		ProjectID: projectID,
		Root:      filepath.Join(projectsRoot, projectID),
	}
}

func (l ProjectLayout) StageDir(name string) string { return filepath.Join(l.Root, name) }

func (l ProjectLayout) RawDocsDir() string { return l.StageDir(DirRawDocs) }

func (l ProjectLayout) StandardizedDocsDir() string {
	return filepath.Join(l.Root, DirStandardized, "docs")
}

func (l ProjectLayout) InsightsFile() string {
	return filepath.Join(l.Root, DirInsights, "key_insights.md")
}

func (l ProjectLayout) ReasoningFile() string {
	return filepath.Join(l.Root, DirReasoning, "project_reasoning.txt")
}

func (l ProjectLayout) MemoDir() string { return l.StageDir(DirMemo) }

const StructureMemoName = "structure_overview.md"

func (l ProjectLayout) StructureFile() string {
	return filepath.Join(l.Root, DirMemo, StructureMemoName)
}

func (l ProjectLayout) FinancialSummaryFile() string {
	return filepath.Join(l.Root, DirFinancial, "summary.json")
}

func (l ProjectLayout) ChartsDir() string {
	return filepath.Join(l.Root, DirFinancial, "charts")
}

func (l ProjectLayout) RevenueChartFile() string {
	return filepath.Join(l.ChartsDir(), "revenue.png")
}

func (l ProjectLayout) DeckFile() string {
	return filepath.Join(l.Root, DirDeck, "deck.md")
}

func (l ProjectLayout) DeckSummaryFile() string {
	return filepath.Join(l.Root, DirDeck, "deck_summary.txt")
}

func (l ProjectLayout) OutputsDir() string { return l.StageDir(DirOutputs) }

// ArtifactFile is the rendered deck path for an audience; ext is "pptx" or "txt".
func (l ProjectLayout) ArtifactFile(audience, ext string) (string, error) {
	if err := ValidateAudience(audience); err != nil {
		return "", err
	}
	return filepath.Join(l.OutputsDir(), fmt.Sprintf("%s-%s.%s", l.ProjectID, audience, ext)), nil
}

func (l ProjectLayout) ErrorReportFile() string {
	return filepath.Join(l.OutputsDir(), l.ProjectID+"-error.txt")
}

func (l ProjectLayout) CompletionMarkerFile() string {
	return filepath.Join(l.Root, "pipeline_complete.txt")
}

// Dirs lists every directory the pipeline writes into, nested ones included.
func (l ProjectLayout) Dirs() []string {
	dirs := make([]string, 0, len(StageDirs)+2)
	for _, name := range StageDirs {
		dirs = append(dirs, l.StageDir(name))
	}
	return append(dirs, l.StandardizedDocsDir(), l.ChartsDir())
}
