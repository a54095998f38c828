// Package cli provides the marginalia command line interface.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// version is set at build time.
var version = "dev"

// Global flags.
var (
	verbose   bool
	useRemote bool
	dataDir   string
)

// Services used by the commands. They are set by the bootstrap, or
// directly by tests.
var (
	annotationService driving.AnnotationService
	documentService   driving.DocumentService
	settingsService   driving.SettingsService
	rasteriser        driven.OverlayRasteriser
	closeServices     func() error
)

// Options are the global flags handed to the bootstrap.
type Options struct {
	Remote  bool
	DataDir string
}

// Services are the collaborators the commands run against.
type Services struct {
	Annotations driving.AnnotationService
	Documents   driving.DocumentService
	Settings    driving.SettingsService
	Rasteriser  driven.OverlayRasteriser

	// Close releases stores. May be nil.
	Close func() error
}

// Bootstrap builds the services once the global flags are parsed.
type Bootstrap func(opts Options) (*Services, error)

var bootstrap Bootstrap

var rootCmd = &cobra.Command{
	Use:   "marginalia",
	Short: "Anchor highlights and memos to PDF pages",
	Long: `Marginalia anchors highlights and memos to regions of PDF pages.

Annotations are stored as page-relative rectangles, so they line up with
the text at any zoom level. They can be kept in a local database or on a
remote marginalia server (--remote).`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&useRemote, "remote", false, "use the configured remote server instead of the local store")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory of the local annotation database")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices sets the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	annotationService = s.Annotations
	documentService = s.Documents
	settingsService = s.Settings
	rasteriser = s.Rasteriser
	closeServices = s.Close
}

// Shutdown releases the services if the command did not already.
func Shutdown() error {
	return teardown(nil, nil)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.Section(cmd.CommandPath())
	if bootstrap == nil {
		return nil
	}
	s, err := bootstrap(Options{Remote: useRemote, DataDir: dataDir})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// appSettings returns the stored settings, or the defaults when no
// settings service is configured or it fails.
func appSettings() domain.AppSettings {
	if settingsService == nil {
		return domain.DefaultAppSettings()
	}
	s, err := settingsService.Get()
	if err != nil || s == nil {
		logger.Warn("Using default settings: %v", err)
		return domain.DefaultAppSettings()
	}
	return *s
}

func requireAnnotations() error {
	if annotationService == nil {
		return errors.New("annotation service not configured")
	}
	return nil
}

func requireDocuments() error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	return nil
}
