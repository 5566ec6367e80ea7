// Package constants holds configuration values shared between layers.
package constants

// Pub/Sub providers.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Mail drivers.
const (
	MailDriverLog    = "log"
	MailDriverSMTP   = "smtp"
	MailDriverPubSub = "pubsub"
)

// OAuth state store drivers.
const (
	StateDriverMemory = "memory"
	StateDriverRedis  = "redis"
)

// ProviderGoogle names the Google identity provider.
const ProviderGoogle = "google"

// PubSub message attributes.
const (
	AttributeEventType = "event_type"
	AttributeRequestID = "request_id"
	EventTypeMail      = "mail"
)
