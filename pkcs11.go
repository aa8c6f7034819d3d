//go:build pkcs11 && cgo

package pkcs11uri

import (
	"crypto"
	"fmt"
	"net/url"

	"github.com/ThalesIgnite/crypto11"
	"github.com/spf13/afero"
)

// LoadSigner opens the PKCS#11 module a parsed URI points at and
// retrieves the key pair it names as a crypto.Signer. An error is
// returned if the provider cannot find the module, the token, or the
// specified object.
func LoadSigner(m *Mapping) (crypto.Signer, error) {
	tc, err := m.TokenConfig()
	if err != nil {
		return nil, err
	}
	pin, err := tc.ResolvePin(afero.NewOsFs())
	if err != nil {
		return nil, err
	}

	config := &crypto11.Config{
		Path:        tc.ModulePath,
		Pin:         pin,
		MaxSessions: tc.MaxSessions,
	}
	// crypto11 accepts exactly one of slot number, serial, and label.
	switch {
	case tc.SlotID != nil:
		config.SlotNumber = tc.SlotID
	case tc.TokenSerial != "":
		config.TokenSerial = tc.TokenSerial
	default:
		config.TokenLabel = tc.TokenLabel
	}

	ctx, err := crypto11.Configure(config)
	if err != nil {
		return nil, err
	}

	var id, label []byte
	if raw, ok := m.ID(); ok {
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			return nil, fmt.Errorf("pkcs11uri: decoding id %q: %w", raw, err)
		}
		id = []byte(decoded)
	}
	if raw, ok := m.Object(); ok {
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			return nil, fmt.Errorf("pkcs11uri: decoding object %q: %w", raw, err)
		}
		label = []byte(decoded)
	}

	signer, err := ctx.FindKeyPair(id, label)
	if err != nil {
		return nil, err
	}
	if signer == nil {
		return nil, fmt.Errorf("pkcs11uri: no key pair found for id=%x label=%q", id, label)
	}
	return signer, nil
}
