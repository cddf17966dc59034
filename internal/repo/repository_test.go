package repo_test

import (
	"testing"

	"github.com/hamed0406/integrationprobe/internal/repo"
	"github.com/hamed0406/integrationprobe/internal/repo/memory"
	pg "github.com/hamed0406/integrationprobe/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.HistoryStore = memory.New()
	var _ repo.AlertStore = memory.New()

	var _ repo.HistoryStore = (*pg.Store)(nil)
	var _ repo.AlertStore = (*pg.Store)(nil)
}
