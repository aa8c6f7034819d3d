package pkcs11uri

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestTokenConfig(t *testing.T) {
	mapping := mustParse(t, "pkcs11:token=My%20Token;serial=ABC123;slot-id=3;object=my-key;id=%01%02?module-path=/usr/lib/softhsm/libsofthsm2.so&pin-value=1234&max-sessions=4")

	tc, err := mapping.TokenConfig()
	require.NoError(t, err)
	require.Equal(t, "My Token", tc.TokenLabel)
	require.Equal(t, "ABC123", tc.TokenSerial)
	require.Equal(t, "/usr/lib/softhsm/libsofthsm2.so", tc.ModulePath)
	require.Equal(t, "1234", tc.PinValue)
	require.Equal(t, 4, tc.MaxSessions)
	require.NotNil(t, tc.SlotID)
	require.Equal(t, 3, *tc.SlotID)
}

func TestTokenConfigAbsentAttributes(t *testing.T) {
	tc, err := mustParse(t, "pkcs11:").TokenConfig()
	require.NoError(t, err)
	require.Nil(t, tc.SlotID)
	require.Zero(t, tc.MaxSessions)
	require.Empty(t, tc.TokenLabel)
}

func TestTokenConfigInvalidNumbers(t *testing.T) {
	mapping, err := quiet(WithoutValidation()).Parse("pkcs11:slot-id=abc")
	require.NoError(t, err)
	_, err = mapping.TokenConfig()
	require.ErrorContains(t, err, "slot-id")

	mapping = mustParse(t, "pkcs11:?max-sessions=many")
	_, err = mapping.TokenConfig()
	require.ErrorContains(t, err, "max-sessions")
}

func TestTokenConfigDecodeError(t *testing.T) {
	mapping := mustParse(t, "pkcs11:token=%zz")
	_, err := mapping.TokenConfig()
	require.ErrorContains(t, err, "decoding token")
}

func TestResolvePin(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/token_pin", []byte("1234\n"), 0600))

	// pin-value wins over pin-source.
	tc := &TokenConfig{PinValue: "9999", PinSource: "file:/etc/token_pin"}
	pin, err := tc.ResolvePin(fs)
	require.NoError(t, err)
	require.Equal(t, "9999", pin)

	for _, source := range []string{
		"file:/etc/token_pin",
		"file:///etc/token_pin",
		"/etc/token_pin",
	} {
		tc := &TokenConfig{PinSource: source}
		pin, err := tc.ResolvePin(fs)
		require.NoError(t, err)
		require.Equal(t, "1234", pin, "source: %s", source)
	}

	tc = &TokenConfig{}
	pin, err = tc.ResolvePin(fs)
	require.NoError(t, err)
	require.Empty(t, pin)

	tc = &TokenConfig{PinSource: "|/usr/lib/pinomatic"}
	_, err = tc.ResolvePin(fs)
	require.ErrorContains(t, err, "not supported")

	tc = &TokenConfig{PinSource: "file:/no/such/file"}
	_, err = tc.ResolvePin(fs)
	require.Error(t, err)
}
