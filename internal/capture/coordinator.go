// Package capture tracks per-tab job captures: classify the page on navigation,
// extract a posting, keep it in transient storage, and hand it to the save pipeline.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/amishk599/jobber/internal/adapter"
	"github.com/amishk599/jobber/internal/extract"
	"github.com/amishk599/jobber/internal/model"
)

const (
	// KeyPrefix prefixes the transient storage key of a tab's capture.
	KeyPrefix = "jobDetails_"

	BadgeText  = "!"
	BadgeColor = "#3b82f6"
)

// ErrNoCapture is returned by Save when the tab holds no extracted posting.
var ErrNoCapture = errors.New("no job captured for this tab")

// Key is the transient storage key for tabID's capture.
func Key(tabID int) string {
	return ScopedKey("", tabID)
}

// ScopedKey is the storage key for tabID's capture within scope. Every scoped
// key still starts with KeyPrefix.
func ScopedKey(scope string, tabID int) string {
	if scope == "" {
		return KeyPrefix + strconv.Itoa(tabID)
	}
	return KeyPrefix + scope + "_" + strconv.Itoa(tabID)
}

// Saver persists a posting for an authenticated user.
type Saver interface {
	Save(ctx context.Context, posting model.JobPosting, auth model.Auth) (model.Application, error)
}

// Config holds coordinator options.
type Config struct {
	// AutoDetect enables extraction on navigation. When false, navigations only
	// clear whatever the tab held before.
	AutoDetect bool

	// Scope namespaces capture keys so coordinators sharing a store keep
	// their tabs apart. Empty means unscoped.
	Scope string
}

// Deps are the collaborators a Coordinator needs. Tabs may be nil, which
// disables the stale-URL check.
type Deps struct {
	Store     model.KVStore
	Badge     model.Badge
	Loader    model.PageLoader
	Tabs      model.TabLocator
	Saver     Saver
	Session   model.Session
	Extractor *extract.Extractor
}

type tab struct {
	mu         sync.Mutex
	state      State
	capturedAt time.Time
}

// Coordinator runs the capture state machine for every tab. Events for one tab
// are serialized; different tabs proceed concurrently.
type Coordinator struct {
	deps       Deps
	autoDetect bool
	scope      string
	now        func() time.Time
	logger     *slog.Logger

	mu   sync.Mutex
	tabs map[int]*tab
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(deps Deps, cfg Config, logger *slog.Logger) *Coordinator {
	if deps.Extractor == nil {
		deps.Extractor = extract.NewExtractor(0)
	}
	return &Coordinator{
		deps:       deps,
		autoDetect: cfg.AutoDetect,
		scope:      cfg.Scope,
		now:        time.Now,
		logger:     logger,
		tabs:       make(map[int]*tab),
	}
}

func (c *Coordinator) tab(tabID int) *tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tabs[tabID]
	if !ok {
		t = &tab{}
		c.tabs[tabID] = t
	}
	return t
}

func (c *Coordinator) key(tabID int) string {
	return ScopedKey(c.scope, tabID)
}

// OnNavigationComplete handles a finished navigation of tabID to url, loading
// the page through the configured PageLoader.
func (c *Coordinator) OnNavigationComplete(ctx context.Context, tabID int, url string) {
	c.process(ctx, tabID, url, func(ctx context.Context, recipe model.Recipe) (model.JobPosting, error) {
		doc, err := c.deps.Loader.Load(ctx, url)
		if err != nil {
			return model.JobPosting{}, err
		}
		return c.deps.Extractor.Extract(doc, recipe), nil
	})
}

// OnDocument handles a navigation whose document the host already parsed.
func (c *Coordinator) OnDocument(ctx context.Context, tabID int, doc model.DocumentQuery) {
	c.process(ctx, tabID, doc.URL(), func(_ context.Context, recipe model.Recipe) (model.JobPosting, error) {
		return c.deps.Extractor.Extract(doc, recipe), nil
	})
}

// OnDetected handles a posting extracted by the host itself (a content script).
// The posting is cleaned up like a loaded page would be. A posting without a URL
// cannot be classified and leaves the tab untouched.
func (c *Coordinator) OnDetected(ctx context.Context, tabID int, posting model.JobPosting) {
	posting = c.deps.Extractor.Normalize(posting)
	if posting.URL == "" {
		c.logger.Warn("detected posting has no url, ignoring", "tab", tabID)
		return
	}
	c.process(ctx, tabID, posting.URL, func(_ context.Context, recipe model.Recipe) (model.JobPosting, error) {
		posting.Source = recipe.Source
		return posting, nil
	})
}

type producer func(ctx context.Context, recipe model.Recipe) (model.JobPosting, error)

func (c *Coordinator) process(ctx context.Context, tabID int, url string, produce producer) {
	t := c.tab(tabID)
	t.mu.Lock()
	defer t.mu.Unlock()

	log := c.logger.With("tab", tabID, "url", url)

	// Whatever the tab held belongs to the previous page.
	c.discard(ctx, tabID, t)

	if !c.autoDetect {
		t.state = StateIdle
		return
	}

	recipe, ok := adapter.RecipeFor(url)
	if !ok {
		t.state = StateIdle
		return
	}
	t.state = StateClassified

	posting, err := c.produce(ctx, recipe, produce)
	if err != nil {
		log.Warn("extraction failed", "error", err)
		return
	}
	if !extract.Meaningful(posting) {
		log.Debug("page has no title or company, ignoring")
		t.state = StateIdle
		return
	}

	if c.deps.Tabs != nil {
		if current, ok := c.deps.Tabs.CurrentURL(tabID); ok && current != url {
			log.Debug("tab navigated during extraction, dropping result", "current_url", current)
			return
		}
	}

	posting.CapturedAt = c.now().UTC()
	data, err := json.Marshal(posting)
	if err != nil {
		log.Error("encoding capture", "error", err)
		return
	}
	if err := c.deps.Store.Set(ctx, c.key(tabID), data); err != nil {
		log.Error("storing capture", "error", err)
		return
	}
	if err := c.deps.Badge.SetBadge(ctx, tabID, BadgeText, BadgeColor); err != nil {
		log.Warn("setting badge", "error", err)
	}

	t.state = StateExtracted
	t.capturedAt = posting.CapturedAt
	log.Info("job captured",
		"source", posting.Source,
		"title", posting.Title,
		"company", posting.Company,
	)
}

// produce runs fn and converts a panic into an error.
func (c *Coordinator) produce(ctx context.Context, recipe model.Recipe, fn producer) (posting model.JobPosting, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()
	return fn(ctx, recipe)
}

// discard removes the tab's capture and badge. Callers hold t.mu.
func (c *Coordinator) discard(ctx context.Context, tabID int, t *tab) {
	if err := c.deps.Store.Remove(ctx, c.key(tabID)); err != nil {
		c.logger.Warn("removing capture", "tab", tabID, "error", err)
	}
	if err := c.deps.Badge.ClearBadge(ctx, tabID); err != nil {
		c.logger.Warn("clearing badge", "tab", tabID, "error", err)
	}
	if t.state == StateExtracted {
		t.state = StateDiscarded
	}
	t.capturedAt = time.Time{}
}

// Current returns the posting captured for tabID, if any.
func (c *Coordinator) Current(ctx context.Context, tabID int) (model.JobPosting, bool, error) {
	data, ok, err := c.deps.Store.Get(ctx, c.key(tabID))
	if err != nil {
		return model.JobPosting{}, false, fmt.Errorf("reading capture for tab %d: %w", tabID, err)
	}
	if !ok {
		return model.JobPosting{}, false, nil
	}
	var posting model.JobPosting
	if err := json.Unmarshal(data, &posting); err != nil {
		return model.JobPosting{}, false, fmt.Errorf("decoding capture for tab %d: %w", tabID, err)
	}
	return posting, true, nil
}

// State reports the lifecycle state of tabID.
func (c *Coordinator) State(tabID int) State {
	c.mu.Lock()
	t, ok := c.tabs[tabID]
	c.mu.Unlock()
	if !ok {
		return StateIdle
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Save hands the tab's capture to the Saver with the session's credentials.
// On failure the capture is kept so the user can retry.
func (c *Coordinator) Save(ctx context.Context, tabID int) (model.Application, error) {
	t := c.tab(tabID)
	t.mu.Lock()
	defer t.mu.Unlock()

	posting, ok, err := c.Current(ctx, tabID)
	if err != nil {
		return model.Application{}, err
	}
	if !ok {
		return model.Application{}, ErrNoCapture
	}

	auth, err := c.deps.Session.Auth(ctx)
	if err != nil {
		return model.Application{}, err
	}

	app, err := c.deps.Saver.Save(ctx, posting, auth)
	if err != nil {
		c.logger.Warn("save failed, keeping capture", "tab", tabID, "error", err)
		return model.Application{}, err
	}

	c.discard(ctx, tabID, t)
	t.state = StateSaved
	return app, nil
}

// Close forgets tabID, discarding any capture it held.
func (c *Coordinator) Close(ctx context.Context, tabID int) {
	t := c.tab(tabID)
	t.mu.Lock()
	c.discard(ctx, tabID, t)
	t.mu.Unlock()

	c.mu.Lock()
	delete(c.tabs, tabID)
	c.mu.Unlock()
}

// Expire discards captures older than ttl and returns how many were dropped.
func (c *Coordinator) Expire(ctx context.Context, ttl time.Duration) int {
	cutoff := c.now().Add(-ttl)

	c.mu.Lock()
	tabs := make(map[int]*tab, len(c.tabs))
	for id, t := range c.tabs {
		tabs[id] = t
	}
	c.mu.Unlock()

	expired := 0
	for id, t := range tabs {
		t.mu.Lock()
		if t.state == StateExtracted && t.capturedAt.Before(cutoff) {
			c.discard(ctx, id, t)
			expired++
		}
		t.mu.Unlock()
	}
	return expired
}
