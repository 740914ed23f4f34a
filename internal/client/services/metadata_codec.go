package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/cryptox"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// MetadataDecrypter opens metadata envelopes. *cryptox.Provider implements it.
type MetadataDecrypter interface {
	Decrypt(data []byte, strategy cryptox.KeyStrategy) ([]byte, error)
}

// MetadataCodec turns a fetched record into trusted metadata.
//
// Contract:
//   - Decode: decrypt the envelope if there is one, otherwise take the
//     legacy plaintext fields; then check structural limits.
//
// Every error concerns a single record. Callers skip the record and carry on.
type MetadataCodec interface {
	Decode(ctx context.Context, rec models.ResourceRecord) (models.Metadata, error)
}

type metadataCodec struct {
	crypto  MetadataDecrypter
	enabled bool
}

// NewMetadataCodec returns a codec. With enabled false any record carrying
// an envelope is rejected with common.ErrMetadataUnsupported.
func NewMetadataCodec(crypto MetadataDecrypter, enabled bool) MetadataCodec {
	return &metadataCodec{crypto: crypto, enabled: enabled}
}

func (c *metadataCodec) Decode(ctx context.Context, rec models.ResourceRecord) (models.Metadata, error) {
	var (
		md  models.Metadata
		err error
	)
	if rec.Metadata == nil {
		md = legacyMetadata(rec)
	} else if md, err = c.decrypt(rec); err != nil {
		return models.Metadata{}, err
	}

	if err := validateMetadata(md); err != nil {
		return models.Metadata{}, err
	}
	return md, nil
}

func legacyMetadata(rec models.ResourceRecord) models.Metadata {
	md := models.Metadata{
		ObjectType:     common.MetadataObjectType,
		ResourceTypeID: rec.ResourceTypeID,
		Name:           rec.Name,
		Username:       rec.Username,
		Description:    rec.Description,
	}
	if rec.URI != "" {
		md.URIs = []string{rec.URI}
	}
	return md
}

func keyStrategy(env *models.MetadataEnvelope) (cryptox.KeyStrategy, error) {
	switch env.KeyType {
	case models.MetadataKeyShared:
		if env.KeyID == nil {
			return cryptox.KeyStrategy{}, fmt.Errorf("%w: shared key without id", cryptox.ErrKeyNotFound)
		}
		return cryptox.SharedKeyByID(*env.KeyID), nil
	case models.MetadataKeyUser:
		return cryptox.OwnKey(), nil
	default:
		return cryptox.KeyStrategy{}, fmt.Errorf("%w: %q", cryptox.ErrUnsupportedKey, env.KeyType)
	}
}

func (c *metadataCodec) decrypt(rec models.ResourceRecord) (models.Metadata, error) {
	if !c.enabled {
		return models.Metadata{}, common.ErrMetadataUnsupported
	}

	strategy, err := keyStrategy(rec.Metadata)
	if err != nil {
		return models.Metadata{}, err
	}

	plaintext, err := c.crypto.Decrypt(rec.Metadata.Data, strategy)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("failed to decrypt metadata: %w", err)
	}
	defer common.WipeByteArray(plaintext)

	var md models.Metadata
	if err := json.Unmarshal(plaintext, &md); err != nil {
		return models.Metadata{}, fmt.Errorf("%w: %w", common.ErrInvalidMetadata, err)
	}
	if md.ObjectType != common.MetadataObjectType {
		return models.Metadata{}, fmt.Errorf("%w: object_type %q", common.ErrInvalidMetadata, md.ObjectType)
	}
	if err := crossValidate(rec, md); err != nil {
		return models.Metadata{}, err
	}
	md.ResourceTypeID = rec.ResourceTypeID
	return md, nil
}

// crossValidate compares decrypted metadata against the legacy fields the
// server still sent in the clear. Empty legacy fields are not compared.
func crossValidate(rec models.ResourceRecord, md models.Metadata) error {
	check := func(field, legacy, decrypted string) error {
		if legacy != "" && legacy != decrypted {
			return fmt.Errorf("%w: %s", common.ErrMetadataMismatch, field)
		}
		return nil
	}
	if md.ResourceTypeID != uuid.Nil && md.ResourceTypeID != rec.ResourceTypeID {
		return fmt.Errorf("%w: resource_type_id", common.ErrMetadataMismatch)
	}
	for _, err := range []error{
		check("name", rec.Name, md.Name),
		check("username", rec.Username, md.Username),
		check("uri", rec.URI, md.URI()),
		check("description", rec.Description, md.Description),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func validateMetadata(md models.Metadata) error {
	err := validation.ValidateStruct(&md,
		validation.Field(&md.Name, validation.Required, validation.RuneLength(1, 255)),
		validation.Field(&md.Username, validation.RuneLength(0, 255)),
		validation.Field(&md.URIs, validation.Each(validation.RuneLength(0, 1024))),
		validation.Field(&md.Description, validation.RuneLength(0, 10000)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidMetadata, err)
	}
	return nil
}
