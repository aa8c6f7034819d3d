package pkcs11uri

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// violation is a rule failure before any positional information has been
// attached; the orchestrator in parse.go turns it into a *ParseError.
type violation struct {
	text string
	help string
}

var (
	libraryVersionRegexp *regexp.Regexp
	slotIDRegexp         *regexp.Regexp
	percentEncodedRegexp *regexp.Regexp
)

func init() {
	// `1*DIGIT [ "." 1*DIGIT ]`
	libraryVersionRegexp = regexp.MustCompile(`^\d+(\.\d+)?$`)
	// `1*DIGIT`
	slotIDRegexp = regexp.MustCompile(`^\d+$`)
	percentEncodedRegexp = regexp.MustCompile(`^(%[0-9a-fA-F]{2})+$`)
}

// commonValueViolation applies the rules shared by every path and query
// value: no literal spaces, no literal '#'.
func commonValueViolation(value string) *violation {
	if strings.Contains(value, " ") {
		return &violation{
			text: "Invalid component value: Appendix A of [RFC3986] specifies component values may not contain empty spaces.",
			help: fmt.Sprintf("Replace `%s` with `%s`.", value, strings.ReplaceAll(value, " ", "%20")),
		}
	}
	if strings.Contains(value, "#") {
		return &violation{
			text: "Invalid component value: The '#' delimiter must always be percent-encoded.",
			help: fmt.Sprintf("Replace `%s` with `%s`.", value, strings.ReplaceAll(value, "#", "%23")),
		}
	}
	return nil
}

func validatePathValue(c classified, value string) *violation {
	switch c.kind {
	case attrType:
		switch value {
		case "public", "private", "cert", "secret-key", "data":
			return nil
		}
		return &violation{
			text: "Invalid `pk11-pattr`: `pk11-type` = `\"type\" \"=\" ( \"public\" / \"private\" / \"cert\" / \"secret-key\" / \"data\" )`.",
			help: fmt.Sprintf("Replace `%s` value with one of `public`, `private`, `cert`, `secret-key`, or `data`.", value),
		}
	case attrLibraryVersion:
		if !libraryVersionRegexp.MatchString(value) {
			return &violation{
				text: "Invalid `pk11-pattr`: `pk11-lib-ver` = `\"library-version\" \"=\" 1*DIGIT [ \".\" 1*DIGIT ]`.",
				help: "The `library-version` attribute represents the major and minor version decimal number of the library and its format is `M.N`. The major version is required.",
			}
		}
		return nil
	case attrSlotID:
		if !slotIDRegexp.MatchString(value) {
			return &violation{
				text: "Invalid `pk11-pattr`: `pk11-slot-id` = `\"slot-id\" \"=\" 1*DIGIT`.",
				help: "The `slot-id` value may only be numeric.",
			}
		}
		return nil
	}
	if v := commonValueViolation(value); v != nil {
		return v
	}
	// Text-valued path attributes must not contain '/'; it is fine in
	// query values, where '&' and '?' do the delimiting.
	if strings.Contains(value, "/") {
		return &violation{
			text: "Invalid `pk11-pattr`: The general '/' delimiter must always be percent-encoded in a path component.",
			help: fmt.Sprintf("Replace `%s` with `%s`.", value, strings.ReplaceAll(value, "/", "%2F")),
		}
	}
	return nil
}

func validateQueryValue(value string) *violation {
	return commonValueViolation(value)
}

// Characters usable without percent-encoding in both components, beyond
// alphanumerics (RFC 7512 pk11-res-avail).
const reservedAvailable = "-._~:[]@!$'()*+,="

func (p *Parser) maybeWarnPath(c classified, value string) {
	switch c.kind {
	case attrID:
		if !percentEncodedRegexp.MatchString(value) {
			p.warnf("the whole value of the `id` attribute SHOULD be percent-encoded: id=%s.", value)
		}
	case attrType, attrLibraryVersion, attrSlotID:
		// Grammar-checked values; nothing advisory to add.
	default:
		p.suggestPercentEncoding(c.name, value, "&")
	}
}

func (p *Parser) maybeWarnQuery(c classified, value string) {
	if c.kind == attrModuleName && (strings.HasPrefix(value, "lib") || strings.ContainsAny(value, "./\\")) {
		p.warnf("the attribute \"module-name\" SHOULD contain a case-insensitive PKCS #11 module name (not path nor filename) without system-specific affices. Context: `module-name=%s`.", value)
	}
	p.suggestPercentEncoding(c.name, value, "/?|")
}

// suggestPercentEncoding emits a warning for every character outside the
// component's reserved-safe set, and for '%' escapes not followed by two
// hex digits. extra holds the delimiters additionally available to this
// component ('&' in the path, "/?|" in the query).
func (p *Parser) suggestPercentEncoding(attribute, value, extra string) {
	runes := []rune(value)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '%':
			if i+2 >= len(runes) || !isHexDigit(runes[i+1]) || !isHexDigit(runes[i+2]) {
				p.warnf("identified malformed percent-encoding at offset %d in `%s` of component `%s=%s`", i, value, attribute, value)
			} else {
				i += 2
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		case strings.ContainsRune(reservedAvailable, r) || strings.ContainsRune(extra, r):
		default:
			p.warnf("the `%c` identified at offset %d in `%s` of component `%s=%s` SHOULD be percent-encoded.", r, i, value, attribute, value)
		}
	}
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
