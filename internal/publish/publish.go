package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TrashHobbit/modelkit/internal/hub"
	"github.com/TrashHobbit/modelkit/internal/logbook"
	"github.com/TrashHobbit/modelkit/internal/modelcard"
)

// ItemState is the outcome of one manifest item.
type ItemState string

const (
	StateUploaded ItemState = "uploaded"
	StateMissing  ItemState = "missing"
	StateFailed   ItemState = "failed"
)

// ItemResult records what happened to one item.
type ItemResult struct {
	Item  Item
	State ItemState
	Err   error
	// Files is how many files the upload covered (1 for files, the walked
	// count for directories).
	Files int
	// Note carries non-fatal observations, e.g. a model card warning.
	Note string
}

// Report is the collected outcome of a publish run.
type Report struct {
	RunID    string
	Repo     string
	Started  time.Time
	Finished time.Time
	Results  []ItemResult
}

// Uploaded returns how many items transferred successfully.
func (r Report) Uploaded() int { return r.count(StateUploaded) }

// Missing returns how many items were absent locally.
func (r Report) Missing() int { return r.count(StateMissing) }

// Failed returns how many items hit an upload error.
func (r Report) Failed() int { return r.count(StateFailed) }

func (r Report) count(state ItemState) int {
	n := 0
	for _, res := range r.Results {
		if res.State == state {
			n++
		}
	}
	return n
}

// Publisher drives publish runs against a hub client.
type Publisher struct {
	client hub.Client
	log    *logbook.Logbook
	now    func() time.Time
	newID  func() string
}

// Option customizes a Publisher during construction.
type Option func(*Publisher)

// WithLogbook attaches a run log.
func WithLogbook(log *logbook.Logbook) Option {
	return func(p *Publisher) { p.log = log }
}

// WithClock overrides the report timestamps for tests.
func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		if clock != nil {
			p.now = clock
		}
	}
}

// WithRunID overrides run-id generation for tests.
func WithRunID(gen func() string) Option {
	return func(p *Publisher) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// NewPublisher builds a publisher over the given hub client.
func NewPublisher(client hub.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run verifies the repository exists, then processes every manifest item in
// order. The returned error is non-nil only for the fatal preconditions; all
// per-item outcomes live in the report.
func (p *Publisher) Run(ctx context.Context, repoID string, manifest Manifest) (Report, error) {
	report := Report{
		RunID:   p.newID(),
		Repo:    repoID,
		Started: p.now().UTC(),
	}
	if strings.TrimSpace(repoID) == "" {
		return report, fmt.Errorf("publish: repository id is required")
	}

	if _, err := p.client.RepoInfo(ctx, repoID); err != nil {
		p.log.Error("publish %s: repository lookup failed: %v", repoID, err)
		return report, fmt.Errorf("publish: repository %s: %w", repoID, err)
	}
	p.log.Info("publish %s: run %s started, %d items", repoID, report.RunID, len(manifest.Items))

	for _, item := range manifest.Items {
		report.Results = append(report.Results, p.processItem(ctx, repoID, item))
	}

	report.Finished = p.now().UTC()
	p.log.Info("publish %s: run %s finished: %d uploaded, %d missing, %d failed",
		repoID, report.RunID, report.Uploaded(), report.Missing(), report.Failed())
	return report, nil
}

func (p *Publisher) processItem(ctx context.Context, repoID string, item Item) ItemResult {
	result := ItemResult{Item: item}

	info, err := os.Stat(item.LocalPath)
	if err != nil {
		if os.IsNotExist(err) {
			result.State = StateMissing
			p.log.Warn("publish %s: %s not found locally", repoID, item.RepoPath)
			return result
		}
		result.State = StateFailed
		result.Err = err
		p.log.Error("publish %s: stat %s: %v", repoID, item.RepoPath, err)
		return result
	}

	switch item.Kind {
	case KindDirectory:
		if !info.IsDir() {
			result.State = StateFailed
			result.Err = fmt.Errorf("publish: %s is not a directory", item.LocalPath)
			return result
		}
		uploaded, err := p.client.UploadDir(ctx, repoID, item.LocalPath, item.RepoPath)
		result.Files = len(uploaded)
		if err != nil {
			result.State = StateFailed
			result.Err = err
			p.log.Error("publish %s: upload dir %s: %v", repoID, item.RepoPath, err)
			return result
		}
		result.State = StateUploaded
		p.log.Info("publish %s: uploaded %s (%d files)", repoID, item.RepoPath, result.Files)
	default:
		result.Note = p.checkModelCard(item)
		if err := p.client.UploadFile(ctx, repoID, item.LocalPath, item.RepoPath); err != nil {
			result.State = StateFailed
			result.Err = err
			p.log.Error("publish %s: upload %s: %v", repoID, item.RepoPath, err)
			return result
		}
		result.State = StateUploaded
		result.Files = 1
		p.log.Info("publish %s: uploaded %s", repoID, item.RepoPath)
	}
	return result
}

// checkModelCard validates README frontmatter before upload. Problems are
// returned as a note, never an error: a bad card still gets published.
func (p *Publisher) checkModelCard(item Item) string {
	if !strings.EqualFold(filepath.Base(item.LocalPath), "README.md") {
		return ""
	}
	content, err := os.ReadFile(item.LocalPath)
	if err != nil {
		return ""
	}
	card, _, err := modelcard.Parse(content)
	if err != nil {
		p.log.Warn("publish: model card %s: %v", item.RepoPath, err)
		return err.Error()
	}
	if err := card.Validate(); err != nil {
		p.log.Warn("publish: model card %s: %v", item.RepoPath, err)
		return err.Error()
	}
	return ""
}
