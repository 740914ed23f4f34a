package models

import (
	"encoding/json"
	"fmt"
)

// Secret is a decrypted resource secret. Which fields are populated
// depends on the resource type.
type Secret struct {
	Password    string `json:"password,omitempty"`
	Description string `json:"description,omitempty"`
	Totp        *Totp  `json:"totp,omitempty"`
}

type Totp struct {
	SecretKey string `json:"secret_key"`
	Algorithm string `json:"algorithm"`
	Digits    int    `json:"digits"`
	Period    int    `json:"period"`
}

// ParseSecret decodes plaintext according to the resource type slug.
// password-string types store the bare password, every other type stores
// a JSON object.
func ParseSecret(slug string, plaintext []byte) (Secret, error) {
	if slug == SlugPasswordString || slug == SlugV5PasswordString {
		return Secret{Password: string(plaintext)}, nil
	}
	var s Secret
	if err := json.Unmarshal(plaintext, &s); err != nil {
		return Secret{}, fmt.Errorf("failed to parse %s secret: %w", slug, err)
	}
	return s, nil
}
