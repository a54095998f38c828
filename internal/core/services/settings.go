package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyAuthor        = "author"
	KeyDataDir       = "storage.data_dir"
	KeyServerAddr    = "server.addr"
	KeyRemoteURL     = "remote.base_url"
	KeyRemoteToken   = "remote.token"
	KeyRemoteTimeout = "remote.timeout"
	KeyRemoteRate    = "remote.requests_per_second"
	KeyRemoteBurst   = "remote.burst"
	KeyDefaultColor  = "viewer.default_color"
	KeyRenderWidth   = "viewer.render_width"
	KeyToolbarWidth  = "viewer.toolbar_width"
	KeyToolbarMargin = "viewer.toolbar_margin"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, falling back to defaults
// for unset or malformed values.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Author:     s.getString(KeyAuthor, d.Author),
		DataDir:    s.configStore.GetString(KeyDataDir),
		ServerAddr: s.getString(KeyServerAddr, d.ServerAddr),
		Remote: domain.RemoteSettings{
			BaseURL:           s.configStore.GetString(KeyRemoteURL),
			Token:             s.configStore.GetString(KeyRemoteToken),
			Timeout:           s.getDuration(KeyRemoteTimeout, d.Remote.Timeout),
			RequestsPerSecond: s.getFloat(KeyRemoteRate, d.Remote.RequestsPerSecond),
			Burst:             s.getInt(KeyRemoteBurst, d.Remote.Burst),
		},
		Viewer: domain.ViewerSettings{
			DefaultColor:  s.getColor(KeyDefaultColor, d.Viewer.DefaultColor),
			RenderWidth:   s.getInt(KeyRenderWidth, d.Viewer.RenderWidth),
			ToolbarWidth:  s.getFloat(KeyToolbarWidth, d.Viewer.ToolbarWidth),
			ToolbarMargin: s.getFloat(KeyToolbarMargin, d.Viewer.ToolbarMargin),
		},
	}

	return settings, nil
}

// Save persists application settings. The token is only written when set.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{KeyAuthor, settings.Author},
		{KeyDataDir, settings.DataDir},
		{KeyServerAddr, settings.ServerAddr},
		{KeyRemoteURL, settings.Remote.BaseURL},
		{KeyRemoteTimeout, settings.Remote.Timeout.String()},
		{KeyRemoteRate, settings.Remote.RequestsPerSecond},
		{KeyRemoteBurst, settings.Remote.Burst},
		{KeyDefaultColor, settings.Viewer.DefaultColor},
		{KeyRenderWidth, settings.Viewer.RenderWidth},
		{KeyToolbarWidth, settings.Viewer.ToolbarWidth},
		{KeyToolbarMargin, settings.Viewer.ToolbarMargin},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Remote.Token != "" {
		if err := s.configStore.Set(KeyRemoteToken, settings.Remote.Token); err != nil {
			return fmt.Errorf("save %s: %w", KeyRemoteToken, err)
		}
	}
	return nil
}

// Set updates one setting by key, parsing value for the key's type.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var parsed any
	switch key {
	case KeyAuthor, KeyDataDir, KeyServerAddr, KeyRemoteURL:
		parsed = value
	case KeyRemoteToken:
		return s.SetToken(value)
	case KeyRemoteTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("%w: %s must be a duration like 10s", domain.ErrValidation, key)
		}
		parsed = d.String()
	case KeyRemoteRate, KeyToolbarWidth, KeyToolbarMargin:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrValidation, key)
		}
		parsed = f
	case KeyRemoteBurst, KeyRenderWidth:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || (key == KeyRenderWidth && n == 0) {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, key)
		}
		parsed = n
	case KeyDefaultColor:
		hex, err := NormalizeColor(value)
		if err != nil {
			return err
		}
		parsed = hex
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrValidation, key)
	}

	return s.configStore.Set(key, parsed)
}

// SetToken stores the remote bearer token.
func (s *SettingsService) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is empty", domain.ErrValidation)
	}
	return s.configStore.Set(KeyRemoteToken, token)
}

// Keys lists the settable config keys in display order.
func (s *SettingsService) Keys() []string {
	return []string{
		KeyAuthor, KeyDataDir, KeyServerAddr,
		KeyRemoteURL, KeyRemoteToken, KeyRemoteTimeout, KeyRemoteRate, KeyRemoteBurst,
		KeyDefaultColor, KeyRenderWidth, KeyToolbarWidth, KeyToolbarMargin,
	}
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s.configStore.GetString(key))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getColor(key, defaultVal string) string {
	hex, err := NormalizeColor(s.configStore.GetString(key))
	if err != nil {
		return defaultVal
	}
	return hex
}
