package extension

import (
	"context"
	"sync"

	"github.com/amishk599/jobber/internal/model"
)

var (
	_ model.TabLocator = (*Tabs)(nil)
	_ model.Badge      = (*Badges)(nil)
)

// Tabs records the last URL each tab reported.
type Tabs struct {
	mu   sync.RWMutex
	urls map[int]string
}

func NewTabs() *Tabs {
	return &Tabs{urls: make(map[int]string)}
}

func (t *Tabs) Navigate(tabID int, url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.urls[tabID] = url
}

func (t *Tabs) Close(tabID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.urls, tabID)
}

func (t *Tabs) CurrentURL(tabID int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.urls[tabID]
	return u, ok
}

// BadgeState is the indicator shown on the extension icon for one tab.
type BadgeState struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// Badges keeps per-tab badge state for the host to render.
type Badges struct {
	mu     sync.RWMutex
	badges map[int]BadgeState
}

func NewBadges() *Badges {
	return &Badges{badges: make(map[int]BadgeState)}
}

func (b *Badges) SetBadge(_ context.Context, tabID int, text, color string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.badges[tabID] = BadgeState{Text: text, Color: color}
	return nil
}

func (b *Badges) ClearBadge(_ context.Context, tabID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.badges, tabID)
	return nil
}

// Get returns the badge for tabID; the zero BadgeState means no badge.
func (b *Badges) Get(tabID int) BadgeState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.badges[tabID]
}
