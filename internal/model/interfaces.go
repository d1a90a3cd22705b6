package model

import "context"

// DocumentQuery is read-only selector access to a loaded job page.
type DocumentQuery interface {
	// QueryText returns the trimmed text of the first element matching selector.
	QueryText(selector string) (string, bool)
	// URL is the document location at load time.
	URL() string
}

// KVStore is the transient key/value storage shared by extension components.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, keys ...string) error
}

// ApplicationStore persists applications. Every call is scoped to the acting user.
type ApplicationStore interface {
	Insert(ctx context.Context, app Application) (Application, error)
	Get(ctx context.Context, userID, id string) (Application, error)
	Update(ctx context.Context, userID, id string, patch ApplicationPatch) (Application, error)
	Delete(ctx context.Context, userID, id string) error
	Query(ctx context.Context, userID string, filter ApplicationFilter) ([]Application, error)
}

// Badge sets the per-tab indicator on the extension icon.
type Badge interface {
	SetBadge(ctx context.Context, tabID int, text, color string) error
	ClearBadge(ctx context.Context, tabID int) error
}

// TabLocator reports the URL a tab is currently showing.
type TabLocator interface {
	CurrentURL(tabID int) (string, bool)
}

// Session supplies the signed-in user's credentials.
type Session interface {
	Auth(ctx context.Context) (Auth, error)
}

// Notifier delivers application events (saves, status changes) to the user.
type Notifier interface {
	Notify(events []Event) error
}

// PageLoader loads the document behind a job page URL.
type PageLoader interface {
	Load(ctx context.Context, url string) (DocumentQuery, error)
}
