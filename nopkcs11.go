//go:build !pkcs11 || !cgo

package pkcs11uri

import (
	"crypto"
	"errors"
)

// LoadSigner requires the pkcs11 build tag and cgo.
func LoadSigner(m *Mapping) (crypto.Signer, error) {
	return nil, errors.New("pkcs11uri: pkcs#11 support is not enabled")
}
