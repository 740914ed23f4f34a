package models

import "github.com/google/uuid"

// Resource type slugs understood by this client.
const (
	SlugPasswordAndDescription = "password-and-description"
	SlugPasswordString         = "password-string"
	SlugPasswordDescTotp       = "password-description-totp"
	SlugTotp                   = "totp"

	SlugV5Default         = "v5-default"
	SlugV5PasswordString  = "v5-password-string"
	SlugV5DefaultWithTotp = "v5-default-with-totp"
	SlugV5TotpStandalone  = "v5-totp-standalone"
)

var legacySlugs = map[string]struct{}{
	SlugPasswordAndDescription: {},
	SlugPasswordString:         {},
	SlugPasswordDescTotp:       {},
	SlugTotp:                   {},
}

var v5Slugs = map[string]struct{}{
	SlugV5Default:         {},
	SlugV5PasswordString:  {},
	SlugV5DefaultWithTotp: {},
	SlugV5TotpStandalone:  {},
}

// IsSupportedSlug reports whether resources of the given type can be
// ingested. v5 types carry encrypted metadata and are only understood when
// metadataEnabled is set.
func IsSupportedSlug(slug string, metadataEnabled bool) bool {
	if _, ok := legacySlugs[slug]; ok {
		return true
	}
	if _, ok := v5Slugs[slug]; ok {
		return metadataEnabled
	}
	return false
}

// PropertySchema constrains a single field.
type PropertySchema struct {
	Type      string `json:"type"`
	MaxLength int    `json:"maxLength,omitempty"`
	Format    string `json:"format,omitempty"`
}

// ObjectSchema is the subset of JSON schema the server uses for resource
// type definitions.
type ObjectSchema struct {
	Required   []string                  `json:"required,omitempty"`
	Properties map[string]PropertySchema `json:"properties,omitempty"`
}

// Schema describes the allowed metadata and secret fields of a type.
type Schema struct {
	Resource ObjectSchema `json:"resource"`
	Secret   ObjectSchema `json:"secret"`
}

// ResourceType is a server-defined kind of resource.
type ResourceType struct {
	ID         uuid.UUID `json:"id"`
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	Definition Schema    `json:"definition"`
	// Supported is computed locally, never sent by the server.
	Supported bool `json:"-"`
}
