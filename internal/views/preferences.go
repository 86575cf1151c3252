package views

import (
	"encoding/json"
	"fmt"

	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/storage"
)

const keyIssueFilters = "issueFilters"

// Preferences remembers small UI choices in client storage. They vanish
// whenever client storage is wiped, which is fine: they are only defaults.
type Preferences struct {
	store storage.Store
}

// NewPreferences creates Preferences on store.
func NewPreferences(store storage.Store) *Preferences {
	return &Preferences{store: store}
}

// IssueFilters returns the last used issue filters, or zero filters.
func (p *Preferences) IssueFilters() (models.IssueFilters, error) {
	var f models.IssueFilters
	raw, ok, err := p.store.Get(keyIssueFilters)
	if err != nil || !ok {
		return f, err
	}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return models.IssueFilters{}, fmt.Errorf("decoding saved filters: %w", err)
	}
	return f, nil
}

// SaveIssueFilters remembers f. Zero filters forget the saved ones.
func (p *Preferences) SaveIssueFilters(f models.IssueFilters) error {
	if f.IsZero() {
		return p.store.Delete(keyIssueFilters)
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return p.store.Set(keyIssueFilters, string(raw))
}
