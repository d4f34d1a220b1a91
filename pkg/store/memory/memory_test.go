package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/module"
	"github.com/plaenen/cmscore/pkg/store/storetest"
)

func TestMemoryRepositories(t *testing.T) {
	suite.Run(t, &storetest.ContractSuite{New: New})
}

func TestConcurrentUpdatesOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	repo := NewModuleRepository()
	site := uuid.New()

	m := module.Restore(module.State{SiteID: site, ID: uuid.New(), Title: "Start", Status: domain.StatusActive})
	require.NoError(t, repo.Create(ctx, m))

	allow := domain.ValidatorFunc[module.UpdateModuleTitle](func(context.Context, module.UpdateModuleTitle) (domain.Failures, error) {
		return nil, nil
	})

	const writers = 8
	loaded := make([]*module.Module, writers)
	for i := range loaded {
		var err error
		loaded[i], err = repo.GetByID(ctx, site, m.ID())
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range loaded {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := loaded[i].UpdateTitle(ctx, module.UpdateModuleTitle{SiteID: site, ID: m.ID(), Title: "Writer"}, allow); err != nil {
				errs[i] = err
				return
			}
			errs[i] = repo.Update(ctx, loaded[i])
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	}
	assert.Equal(t, 1, wins)
}
