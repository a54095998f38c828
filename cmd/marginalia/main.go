// Command marginalia anchors highlights and memos to PDF pages.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/marginalia/internal/adapters/driven/config/file"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/pdf"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/raster"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/remote"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/sanitise"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/cli"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/core/services"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(build)

	err := cli.Execute()
	if cerr := cli.Shutdown(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		os.Exit(1)
	}
}

// build wires the stores and services for one command run.
func build(opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = settings.DataDir
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("Using database %s", store.Path())

	var annotations driving.AnnotationService
	if opts.Remote {
		client, err := remote.NewClient(settings.Remote)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("configuring remote: %w", err)
		}
		logger.Debug("Annotations served by %s", settings.Remote.BaseURL)
		annotations = client
	} else {
		annotations = services.NewAnnotationService(store.AnnotationStore(), sanitise.New(), settings.Author)
	}

	documents := services.NewDocumentService(store.DocumentStore(), pdf.NewRenderer(), pdf.NewWatcher(0))

	return &cli.Services{
		Annotations: annotations,
		Documents:   documents,
		Settings:    settingsService,
		Rasteriser:  raster.NewSnapshot(),
		Close:       store.Close,
	}, nil
}
