package commandbus

import (
	"github.com/plaenen/cmscore/pkg/language"
	"github.com/plaenen/cmscore/pkg/module"
	"github.com/plaenen/cmscore/pkg/moduletype"
	"github.com/plaenen/cmscore/pkg/password"
	"github.com/plaenen/cmscore/pkg/store"
	"github.com/plaenen/cmscore/pkg/user"
)

// RegisterAll registers the handlers of every aggregate family over repos.
// A nil hash uses the default bcrypt cost.
func RegisterAll(b *Bus, repos store.Repositories, hash password.Hasher) {
	lh := language.NewHandlers(repos.Languages)
	Register[language.CreateLanguage](b, lh.Create)
	Register[language.UpdateLanguageDetails](b, lh.UpdateDetails)
	Register[language.ReorderLanguages](b, lh.Reorder)
	Register[language.ActivateLanguage](b, lh.Activate)
	Register[language.HideLanguage](b, lh.Hide)
	Register[language.DeleteLanguage](b, lh.Delete)

	th := moduletype.NewHandlers(repos.ModuleTypes, repos.Modules)
	Register[moduletype.CreateModuleType](b, th.Create)
	Register[moduletype.UpdateModuleTypeDetails](b, th.UpdateDetails)
	Register[moduletype.DeleteModuleType](b, th.Delete)

	mh := module.NewHandlers(repos.Modules, repos.ModuleTypes)
	Register[module.CreateModule](b, mh.Create)
	Register[module.UpdateModuleTitle](b, mh.UpdateTitle)
	Register[module.DeleteModule](b, mh.Delete)

	uh := user.NewHandlers(repos.Users, hash)
	Register[user.CreateUser](b, uh.Create)
	Register[user.ChangeUserEmail](b, uh.ChangeEmail)
	Register[user.SetUserPassword](b, uh.SetPassword)
	Register[user.DeleteUser](b, uh.Delete)
}
