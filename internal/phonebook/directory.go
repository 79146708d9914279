package phonebook

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"callmonitor-bridge/internal/common/logging"
)

// Source fetches phonebook documents from the gateway.
type Source interface {
	// PhonebookURL asks the gateway where the document for phonebookID lives.
	PhonebookURL(ctx context.Context, phonebookID int) (string, error)
	// DownloadPhonebook fetches the document behind a URL returned by PhonebookURL.
	DownloadPhonebook(ctx context.Context, url string) ([]byte, error)
}

// Config selects the phonebook and the dialing prefixes tried on lookup misses.
type Config struct {
	PhonebookID int
	// Prefixes are tried in order, e.g. country or area codes.
	Prefixes []string
}

// Directory serves number lookups from the most recently refreshed phonebook.
//
// Refresh calls are serialized. Lookups never take the refresh lock: they
// read whichever index was installed last, and a refresh installs a fully
// built index with a single pointer swap.
type Directory struct {
	source   Source
	config   Config
	logger   logging.Logger
	refresh  sync.Mutex
	index    atomic.Pointer[Index]
	loadedAt atomic.Pointer[time.Time]
}

// NewDirectory creates an empty directory backed by source.
func NewDirectory(source Source, config Config, logger logging.Logger) *Directory {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	prefixes := make([]string, 0, len(config.Prefixes))
	for _, p := range config.Prefixes {
		if p = Normalize(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	config.Prefixes = prefixes

	d := &Directory{
		source: source,
		config: config,
		logger: logger.WithFields(logging.Int("phonebook_id", config.PhonebookID)),
	}
	d.index.Store(newIndex())
	return d
}

// Refresh downloads the phonebook and replaces the index. On any error the
// current index is kept.
func (d *Directory) Refresh(ctx context.Context) error {
	d.refresh.Lock()
	defer d.refresh.Unlock()

	url, err := d.source.PhonebookURL(ctx, d.config.PhonebookID)
	if err != nil {
		return fmt.Errorf("failed to locate phonebook: %w", err)
	}

	data, err := d.source.DownloadPhonebook(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to download phonebook: %w", err)
	}

	idx, err := Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse phonebook: %w", err)
	}

	d.index.Store(idx)
	now := time.Now()
	d.loadedAt.Store(&now)

	d.logger.Info("Phonebook loaded",
		logging.Int("entries", idx.Len()),
		logging.Int("contacts", len(idx.contacts)),
	)
	return nil
}

// Lookup resolves number to a contact. An international number is also tried
// without its '+'. After an exact miss every configured prefix is tried in
// order, first in front of the number as given and then in front of the
// number without its leading zeros.
func (d *Directory) Lookup(number string) (*Contact, bool) {
	n := Normalize(number)
	if n == "" {
		return nil, false
	}

	idx := d.index.Load()
	if c, ok := idx.Get(n); ok {
		return c, true
	}
	if international, ok := strings.CutPrefix(n, "+"); ok && international != "" {
		if c, ok := idx.Get(international); ok {
			return c, true
		}
	}

	trimmed := strings.TrimLeft(n, "0")
	for _, p := range d.config.Prefixes {
		if c, ok := idx.Get(p + n); ok {
			return c, true
		}
		if trimmed == "" || trimmed == n {
			continue
		}
		if c, ok := idx.Get(p + trimmed); ok {
			return c, true
		}
	}
	return nil, false
}

// Entries is the number of unique numbers currently indexed.
func (d *Directory) Entries() int {
	return d.index.Load().Len()
}

// Contacts returns the contacts of the current index.
func (d *Directory) Contacts() []*Contact {
	return d.index.Load().Contacts()
}

// Prefixes returns the normalized lookup prefixes.
func (d *Directory) Prefixes() []string {
	out := make([]string, len(d.config.Prefixes))
	copy(out, d.config.Prefixes)
	return out
}

// LastRefresh is the time of the last successful refresh, zero if none.
func (d *Directory) LastRefresh() time.Time {
	if t := d.loadedAt.Load(); t != nil {
		return *t
	}
	return time.Time{}
}
