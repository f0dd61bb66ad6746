package pipeline

import (
	"fmt"

	"github.com/RavensCloud/douyin-gofun/internal/store"
)

// Columns each job needs in the accounts sheet.
var (
	EnrichColumns  = []string{store.ColAccount}
	CollectColumns = []string{store.ColSecUID, store.ColAccount}
)

// LoadInput reads the accounts sheet and checks it has cols.
func LoadInput(input store.Backend, cols ...string) (*store.Table, error) {
	t, err := input.Load()
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	if err := store.RequireColumns(t, cols...); err != nil {
		return nil, fmt.Errorf("%s: %w", input.Path(), err)
	}
	return t, nil
}
