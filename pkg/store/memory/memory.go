package memory

import (
	"sort"

	"github.com/plaenen/cmscore/pkg/store"
)

func sortStable[T any](xs []T, less func(a, b T) bool) {
	sort.SliceStable(xs, func(i, j int) bool { return less(xs[i], xs[j]) })
}

// New returns an empty set of in-memory repositories.
func New() store.Repositories {
	return store.Repositories{
		Languages:   NewLanguageRepository(),
		ModuleTypes: NewModuleTypeRepository(),
		Modules:     NewModuleRepository(),
		Users:       NewUserRepository(),
	}
}
