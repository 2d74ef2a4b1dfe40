// Package di provides dependency injection configuration for the ReadAloud server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readaloudapp/readaloud-server/internal/config"
	"github.com/readaloudapp/readaloud-server/internal/di/providers"
	"github.com/readaloudapp/readaloud-server/internal/logger"
	"github.com/readaloudapp/readaloud-server/internal/narration"
	"github.com/readaloudapp/readaloud-server/internal/synthesis"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Synthesis layer
	do.Provide(injector, providers.ProvideSynthesizer)

	// Business services
	do.Provide(injector, providers.ProvideNarrationService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[synthesis.Synthesizer](injector)
	_ = do.MustInvoke[*narration.Service](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
