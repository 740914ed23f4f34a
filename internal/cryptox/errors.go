package cryptox

import "errors"

var (
	ErrKeyNotFound    = errors.New("decryption key not found")
	ErrUnsupportedKey = errors.New("unsupported key strategy")
	ErrDecrypt        = errors.New("decryption failed")
	ErrBadSignature   = errors.New("signature verification failed")
	ErrMalformed      = errors.New("malformed ciphertext")
)
