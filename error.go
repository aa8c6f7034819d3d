package pkcs11uri

import (
	"fmt"
	"strings"
)

// A ParseError reports the first RFC 7512 violation found in a URI. URI
// holds the tidied input (newline and tab formatting stripped), and
// [Start, End) is the half-open byte span of the offending fragment
// within it. Violation refers to the RFC 7512 grammar where possible;
// Help is a human-friendly suggestion for correcting the problem.
type ParseError struct {
	URI        string
	Start, End int
	Violation  string
	Help       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid PKCS#11 URI at offset %d: %s", e.Start, e.Violation)
}

// Render highlights the violation within the tidied URI:
//
//	pkcs11:object=Private key for Card Authentication;pin-value=123456
//	       ^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^^ Invalid component value: ...
//
//	help: Replace `Private key for Card Authentication` with `Private%20key%20for%20Card%20Authentication`.
//
// A zero-width span still renders a single caret.
func (e *ParseError) Render() string {
	width := e.End - e.Start
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("%s\n%s%s %s\n\nhelp: %s",
		e.URI,
		strings.Repeat(" ", e.Start),
		strings.Repeat("^", width),
		e.Violation,
		e.Help)
}
