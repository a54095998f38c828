// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// AnnotationService is the store-backed annotation backend: it validates
// targets, enforces one highlight per anchor, sanitises memo bodies and
// assembles page reads. DocumentService and SettingsService cover document
// geometry and configuration.
package services
