package pkcs11uri

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderHighlightsSpan(t *testing.T) {
	uri := "pkcs11:object=Private key for Card Authentication;pin-value=123456"
	perr := mustFail(t, uri)

	expected := uri + "\n" +
		strings.Repeat(" ", 7) + strings.Repeat("^", 42) +
		" Invalid component value: Appendix A of [RFC3986] specifies component values may not contain empty spaces." +
		"\n\nhelp: Replace `Private key for Card Authentication` with `Private%20key%20for%20Card%20Authentication`."
	require.Equal(t, expected, perr.Render())
}

func TestRenderZeroWidthSpan(t *testing.T) {
	perr := mustFail(t, "pkcs12:id=0")
	lines := strings.Split(perr.Render(), "\n")
	require.Equal(t, "pkcs12:id=0", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "^ "), "a zero-width span should render one caret, got %q", lines[1])
}

func TestErrorString(t *testing.T) {
	perr := mustFail(t, "pkcs11:token=foo;token=bar")
	require.Contains(t, perr.Error(), "offset 17")
	require.Contains(t, perr.Error(), "Duplicate `pk11-pattr` standard name")
}
