package pkcs11uri

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// maxSessionsAttr is a vendor query attribute bounding the size of the
// provider's session pool, carried over from gokeyless.
const maxSessionsAttr = "max-sessions"

// TokenConfig collects the attributes a PKCS#11 provider needs to open a
// session for the object a URI names. Unlike the Mapping it is built
// from, its string fields are percent-decoded and its numeric attributes
// are converted from their raw string form.
type TokenConfig struct {
	ModulePath  string
	ModuleName  string
	TokenLabel  string
	TokenSerial string
	SlotID      *int
	PinValue    string
	PinSource   string
	MaxSessions int
}

// TokenConfig distills the mapping into provider configuration.
func (m *Mapping) TokenConfig() (*TokenConfig, error) {
	tc := &TokenConfig{}

	for _, field := range []struct {
		dst  *string
		name string
		get  func() (string, bool)
	}{
		{&tc.ModulePath, "module-path", m.ModulePath},
		{&tc.ModuleName, "module-name", m.ModuleName},
		{&tc.TokenLabel, "token", m.Token},
		{&tc.TokenSerial, "serial", m.Serial},
		{&tc.PinValue, "pin-value", m.PinValue},
		{&tc.PinSource, "pin-source", m.PinSource},
	} {
		raw, ok := field.get()
		if !ok {
			continue
		}
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			return nil, fmt.Errorf("pkcs11uri: decoding %s %q: %w", field.name, raw, err)
		}
		*field.dst = decoded
	}

	if raw, ok := m.SlotID(); ok {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("pkcs11uri: invalid slot-id %q: %w", raw, err)
		}
		tc.SlotID = &id
	}
	if values, ok := m.Vendor(maxSessionsAttr); ok {
		n, err := strconv.Atoi(values[0])
		if err != nil {
			return nil, fmt.Errorf("pkcs11uri: invalid max-sessions %q: %w", values[0], err)
		}
		tc.MaxSessions = n
	}
	return tc, nil
}

// ResolvePin returns the PIN for the token. An explicit pin-value wins;
// otherwise a pin-source naming a local file, with or without a `file:`
// scheme, is read from fs and its trailing newline trimmed. `|program`
// pipe sources are refused.
func (tc *TokenConfig) ResolvePin(fs afero.Fs) (string, error) {
	if tc.PinValue != "" {
		return tc.PinValue, nil
	}
	if tc.PinSource == "" {
		return "", nil
	}
	if strings.HasPrefix(tc.PinSource, "|") {
		return "", fmt.Errorf("pkcs11uri: pin-source %q: program pipe sources are not supported", tc.PinSource)
	}
	path := strings.TrimPrefix(tc.PinSource, "file:")
	if strings.HasPrefix(path, "//") {
		path = strings.TrimPrefix(path, "//")
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
	}
	pin, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("pkcs11uri: reading pin-source: %w", err)
	}
	return strings.TrimRight(string(pin), "\r\n"), nil
}
