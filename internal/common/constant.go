package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// MetadataObjectType tags decrypted resource metadata payloads.
const MetadataObjectType = "PASSBOLT_RESOURCE_METADATA"
