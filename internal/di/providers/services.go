package providers

import (
	"github.com/samber/do/v2"

	"github.com/readaloudapp/readaloud-server/internal/config"
	"github.com/readaloudapp/readaloud-server/internal/logger"
	"github.com/readaloudapp/readaloud-server/internal/narration"
	"github.com/readaloudapp/readaloud-server/internal/synthesis"
	"github.com/readaloudapp/readaloud-server/internal/synthesis/elevenlabs"
)

// ProvideSynthesizer provides the speech synthesis client.
func ProvideSynthesizer(i do.Injector) (synthesis.Synthesizer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return elevenlabs.New(cfg.Synthesis, log.Logger), nil
}

// ProvideNarrationService provides the narration pipeline service.
func ProvideNarrationService(i do.Injector) (*narration.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	synth := do.MustInvoke[synthesis.Synthesizer](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return narration.NewService(synth, storeHandle.Store, cfg.Narration, log), nil
}
