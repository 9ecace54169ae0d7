package constants

import "time"

const (
	DefaultTimeout = 10 * time.Second

	// Database pool settings.
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes

	// Redis key prefixes. Token and expiry are stored under separate keys
	// and always written/cleared together.
	CredentialTokenKeyPrefix  = "credential:token:"
	CredentialExpiryKeyPrefix = "credential:expiry:"

	// Visitor tokens identify a browser profile; they outlive wizard
	// sessions by design.
	VisitorTokenTTL = 30 * 24 * time.Hour

	// Wizard sessions idle-expire if the caller never closes them.
	WizardSessionTTL = 30 * time.Minute

	// The form-to-calendar step applies a short simulated processing delay
	// so the stage change reads as deliberate, not a snap.
	StageTransitionDelay = 600 * time.Millisecond

	// Demo-mode bookings simulate provider latency before succeeding.
	DemoBookingDelay = 1500 * time.Millisecond

	// Consent-flow state nonces are single-use and short-lived.
	OAuthStateTTL = 10 * time.Minute

	// Assumed bearer token lifetime when the provider omits expires_in.
	DefaultTokenTTLSeconds = 3600

	MeetingDuration = 30 * time.Minute
)
