package pkcs11uri

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVocabulariesAreDisjoint(t *testing.T) {
	require.Len(t, pathKinds, 13)
	require.Len(t, queryKinds, 4)
	for name := range pathKinds {
		_, ok := queryKinds[name]
		require.False(t, ok, "%s appears in both vocabularies", name)
	}
}

func TestIsVendorNameChar(t *testing.T) {
	for _, r := range "abcXYZ09-_é" {
		require.True(t, isVendorNameChar(r), "%q", r)
	}
	for _, r := range " $./:%=?" {
		require.False(t, isVendorNameChar(r), "%q", r)
	}
}

func TestNthIndex(t *testing.T) {
	require.Equal(t, 1, nthIndex("a;b;c", ';', 0))
	require.Equal(t, 3, nthIndex("a;b;c", ';', 1))
	// Fewer occurrences than requested: fall back to the last byte.
	require.Equal(t, 4, nthIndex("a;b;c", ';', 2))
	require.Equal(t, 2, nthIndex("abc", ';', 0))
	require.Equal(t, 0, nthIndex("", ';', 0))
}
