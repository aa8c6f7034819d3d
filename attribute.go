package pkcs11uri

import (
	"fmt"
	"strings"
	"unicode"
)

// attrKind identifies a standard RFC 7512 attribute, or attrVendor for
// any well-formed vendor-specific name.
type attrKind int

const (
	// pk11-pattr:
	attrToken attrKind = iota
	attrManufacturer
	attrSerial
	attrModel
	attrLibraryManufacturer
	attrLibraryVersion
	attrLibraryDescription
	attrObject
	attrType
	attrID
	attrSlotDescription
	attrSlotManufacturer
	attrSlotID

	// pk11-qattr:
	attrPinSource
	attrPinValue
	attrModuleName
	attrModulePath

	attrVendor
)

// component distinguishes the path portion of a URI from its query, both
// for vocabulary selection and for duplicate/value rules that differ
// between the two.
type component int

const (
	pathComponent component = iota
	queryComponent
)

type vocabEntry struct {
	name string
	kind attrKind
}

var pathVocabulary = []vocabEntry{
	{"token", attrToken},
	{"manufacturer", attrManufacturer},
	{"serial", attrSerial},
	{"model", attrModel},
	{"library-manufacturer", attrLibraryManufacturer},
	{"library-version", attrLibraryVersion},
	{"library-description", attrLibraryDescription},
	{"object", attrObject},
	{"type", attrType},
	{"id", attrID},
	{"slot-description", attrSlotDescription},
	{"slot-manufacturer", attrSlotManufacturer},
	{"slot-id", attrSlotID},
}

var queryVocabulary = []vocabEntry{
	{"pin-source", attrPinSource},
	{"pin-value", attrPinValue},
	{"module-name", attrModuleName},
	{"module-path", attrModulePath},
}

var (
	pathKinds  map[string]attrKind
	queryKinds map[string]attrKind
)

func init() {
	pathKinds = make(map[string]attrKind, len(pathVocabulary))
	for _, entry := range pathVocabulary {
		pathKinds[entry.name] = entry.kind
	}
	queryKinds = make(map[string]attrKind, len(queryVocabulary))
	for _, entry := range queryVocabulary {
		queryKinds[entry.name] = entry.kind
	}
}

// classified is an attribute name resolved against the vocabulary of its
// component. For attrVendor, name carries the vendor-specific name; for
// standard kinds it carries the standard spelling (used in diagnostics).
type classified struct {
	kind attrKind
	name string
}

func (p *Parser) classify(name string, comp component) (classified, *violation) {
	vocab := pathKinds
	if comp == queryComponent {
		vocab = queryKinds
	}
	if kind, ok := vocab[name]; ok {
		return classified{kind: kind, name: name}, nil
	}
	if !p.validate {
		// Trusted input: anything non-standard is vendor-specific.
		// The x- deprecation notice still applies.
		p.warnDeprecatedPrefix(name)
		return classified{kind: attrVendor, name: name}, nil
	}
	return p.classifyVendor(name)
}

// classifyVendor enforces the `1*pk11-v-attr-nm-char` naming rule and
// rejects standard names that belong to the other component. Everything
// that is not a 1:1 vocabulary match falls through to here.
func (p *Parser) classifyVendor(name string) (classified, *violation) {
	if name == "" {
		return classified{}, &violation{
			text: "Invalid component: Missing attribute name.",
			help: "The attribute name may not be blank. Refer to the RFC7512 specification for valid attributes.",
		}
	}
	if _, ok := pathKinds[name]; ok {
		return classified{}, &violation{
			text: "Naming collision with standard path component.",
			help: "Move this attribute and its value to the PKCS#11 URI path.",
		}
	}
	if _, ok := queryKinds[name]; ok {
		return classified{}, &violation{
			text: "Naming collision with standard query component.",
			help: fmt.Sprintf("Move `%s` and its value to the PKCS#11 URI query.", name),
		}
	}
	for _, r := range name {
		if !isVendorNameChar(r) {
			return classified{}, &violation{
				text: "Invalid vendor-specific component name: expected `1*pk11-v-attr-nm-char`.",
				help: fmt.Sprintf("`%s` violated vendor-specific attribute name characters consisting solely of alphanumeric, '-', or '_'.", name),
			}
		}
	}
	p.warnDeprecatedPrefix(name)
	return classified{kind: attrVendor, name: name}, nil
}

func isVendorNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}

func (p *Parser) warnDeprecatedPrefix(name string) {
	if strings.HasPrefix(name, "x-") {
		p.warnf("per RFC7512, the previously used convention of starting vendor attributes with an \"x-\" prefix is now deprecated. Identified: `%s`.", name)
	}
}

// assign records a classified attribute's value in the mapping, applying
// the duplicate policy of the component it was found in. With enforce
// unset (WithoutValidation), repeats simply overwrite single-valued
// slots; query vendor attributes accumulate either way.
func (m *Mapping) assign(c classified, value string, comp component, enforce bool) *violation {
	if c.kind == attrVendor {
		return m.assignVendor(c.name, value, comp, enforce)
	}
	if _, dup := m.standard[c.kind]; dup && enforce {
		if comp == pathComponent {
			return &violation{
				text: fmt.Sprintf("Duplicate `pk11-pattr` standard name: %q.", c.name),
				help: "A PKCS #11 URI must not contain duplicate attributes of the same name in the URI path component.",
			}
		}
		return &violation{
			text: fmt.Sprintf("Duplicate `pk11-qattr` standard name: %q.", c.name),
			help: "A PKCS #11 URI must not contain duplicate standard attributes of the same name in the URI query component.",
		}
	}
	m.standard[c.kind] = value
	return nil
}

func (m *Mapping) assignVendor(name, value string, comp component, enforce bool) *violation {
	values, exists := m.vendor[name]
	if !exists {
		m.vendorOrder = append(m.vendorOrder, name)
	}
	if comp == pathComponent {
		if exists && enforce {
			return &violation{
				text: fmt.Sprintf("Duplicate `pk11-v-pattr` vendor-specific name: %q.", name),
				help: "A PKCS #11 URI must not contain duplicate vendor attributes of the same name in the URI path component.",
			}
		}
		// Single-valued in the path.
		m.vendor[name] = []string{value}
		return nil
	}
	// Multi-valued in the query; order of appearance is preserved.
	m.vendor[name] = append(values, value)
	return nil
}
