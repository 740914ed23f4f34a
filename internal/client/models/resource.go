// Package models defines client-side data models used by the orgkeeper CLI:
// resources and their types, folders, permissions, users and groups, plus
// the request/response shapes exchanged with the server.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MetadataKeyType selects which key decrypts a metadata envelope.
type MetadataKeyType string

const (
	// MetadataKeyShared is an organization metadata key looked up by id.
	MetadataKeyShared MetadataKeyType = "shared_key"
	// MetadataKeyUser is the caller's own key.
	MetadataKeyUser MetadataKeyType = "user_key"
)

// Metadata is the descriptive, non-secret part of a resource.
type Metadata struct {
	ObjectType     string    `json:"object_type,omitempty"`
	ResourceTypeID uuid.UUID `json:"resource_type_id,omitempty"`
	Name           string    `json:"name"`
	Username       string    `json:"username,omitempty"`
	URIs           []string  `json:"uris,omitempty"`
	Description    string    `json:"description,omitempty"`
}

// URI returns the primary uri or "".
func (m Metadata) URI() string {
	if len(m.URIs) == 0 {
		return ""
	}
	return m.URIs[0]
}

// Fields flattens metadata into the property names used by resource type
// schemas.
func (m Metadata) Fields() map[string]string {
	return map[string]string{
		"name":        m.Name,
		"username":    m.Username,
		"uri":         m.URI(),
		"description": m.Description,
	}
}

// MetadataEnvelope is encrypted metadata as delivered by the server.
type MetadataEnvelope struct {
	Data    []byte          `json:"data"`
	KeyID   *uuid.UUID      `json:"key_id,omitempty"`
	KeyType MetadataKeyType `json:"key_type"`
}

// ResourceRecord is one resource as returned by the resources endpoint.
// Name, Username, URI and Description are the legacy plaintext fields; they
// may be empty when the server only ships encrypted metadata.
type ResourceRecord struct {
	ID             uuid.UUID         `json:"id"`
	ResourceTypeID uuid.UUID         `json:"resource_type_id"`
	FolderParentID *uuid.UUID        `json:"folder_parent_id,omitempty"`
	Name           string            `json:"name,omitempty"`
	Username       string            `json:"username,omitempty"`
	URI            string            `json:"uri,omitempty"`
	Description    string            `json:"description,omitempty"`
	Metadata       *MetadataEnvelope `json:"metadata,omitempty"`
	Secret         []byte            `json:"secret"`
	Permissions    []Permission      `json:"permissions"`
	Tags           []string          `json:"tags,omitempty"`
	Modified       time.Time         `json:"modified"`
	Expired        *time.Time        `json:"expired,omitempty"`
}

// Resource is a resource as stored locally, with metadata already decoded.
type Resource struct {
	ID             uuid.UUID
	ResourceTypeID uuid.UUID
	FolderParentID *uuid.UUID
	Secret         []byte
	Metadata       Metadata
	Permissions    []Permission
	Tags           []string
	Modified       time.Time
	Expired        *time.Time
}

// ResourceFromRecord combines a fetched record with its decoded metadata.
func ResourceFromRecord(rec ResourceRecord, md Metadata) Resource {
	return Resource{
		ID:             rec.ID,
		ResourceTypeID: rec.ResourceTypeID,
		FolderParentID: rec.FolderParentID,
		Secret:         rec.Secret,
		Metadata:       md,
		Permissions:    rec.Permissions,
		Tags:           rec.Tags,
		Modified:       rec.Modified,
		Expired:        rec.Expired,
	}
}

// ResourceOverview is the listing projection used by the CLI.
type ResourceOverview struct {
	ID             uuid.UUID
	Name           string
	Username       string
	URI            string
	FolderParentID *uuid.UUID
}
