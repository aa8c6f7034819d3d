// Package pkcs11uri parses and validates PKCS#11 URIs as defined in RFC
// 7512. The general form of a PKCS#11 URI is:
//
//	pkcs11:path-attr[?query-attr]
//
// Path and query attributes are delimited by ';' and '&', respectively.
// For more information read: https://tools.ietf.org/html/rfc7512#section-2.3
//
// Parse returns a Mapping holding every attribute of the URI, or a
// *ParseError locating the first RFC 7512 violation within it. Attribute
// values are kept exactly as written, still percent-encoded; decoding is
// left to consumers such as LoadSigner that hand values to a PKCS#11
// provider.
//
// RFC 7512 "SHOULD"-level rules are advisory: breaking one never fails a
// parse, it only emits a warning through the parser's warning handler
// (cfssl's log package unless WithWarningHandler overrides it).
package pkcs11uri

import (
	"fmt"
	"strings"
)

// Scheme is the fixed RFC 7512 scheme prefix, matched case-sensitively.
const Scheme = "pkcs11:"

// A Mapping holds the attributes parsed out of a single PKCS#11 URI.
// Standard attributes occupy one slot each; vendor-specific attributes
// keep an ordered list of values per name. Values remain percent-encoded.
type Mapping struct {
	standard    map[attrKind]string
	vendor      map[string][]string
	vendorOrder []string
}

func newMapping() *Mapping {
	return &Mapping{
		standard: make(map[attrKind]string),
		vendor:   make(map[string][]string),
	}
}

func (m *Mapping) attr(kind attrKind) (string, bool) {
	value, ok := m.standard[kind]
	return value, ok
}

// Token returns the value of the `token` path attribute, if one was parsed.
func (m *Mapping) Token() (string, bool) { return m.attr(attrToken) }

// Manufacturer returns the value of the `manufacturer` path attribute.
func (m *Mapping) Manufacturer() (string, bool) { return m.attr(attrManufacturer) }

// Serial returns the value of the `serial` path attribute.
func (m *Mapping) Serial() (string, bool) { return m.attr(attrSerial) }

// Model returns the value of the `model` path attribute.
func (m *Mapping) Model() (string, bool) { return m.attr(attrModel) }

// LibraryManufacturer returns the value of the `library-manufacturer` path attribute.
func (m *Mapping) LibraryManufacturer() (string, bool) { return m.attr(attrLibraryManufacturer) }

// LibraryVersion returns the value of the `library-version` path attribute.
func (m *Mapping) LibraryVersion() (string, bool) { return m.attr(attrLibraryVersion) }

// LibraryDescription returns the value of the `library-description` path attribute.
func (m *Mapping) LibraryDescription() (string, bool) { return m.attr(attrLibraryDescription) }

// Object returns the value of the `object` path attribute.
func (m *Mapping) Object() (string, bool) { return m.attr(attrObject) }

// Type returns the value of the `type` path attribute.
func (m *Mapping) Type() (string, bool) { return m.attr(attrType) }

// ID returns the value of the `id` path attribute.
func (m *Mapping) ID() (string, bool) { return m.attr(attrID) }

// SlotDescription returns the value of the `slot-description` path attribute.
func (m *Mapping) SlotDescription() (string, bool) { return m.attr(attrSlotDescription) }

// SlotManufacturer returns the value of the `slot-manufacturer` path attribute.
func (m *Mapping) SlotManufacturer() (string, bool) { return m.attr(attrSlotManufacturer) }

// SlotID returns the value of the `slot-id` path attribute.
func (m *Mapping) SlotID() (string, bool) { return m.attr(attrSlotID) }

// PinSource returns the value of the `pin-source` query attribute.
func (m *Mapping) PinSource() (string, bool) { return m.attr(attrPinSource) }

// PinValue returns the value of the `pin-value` query attribute.
func (m *Mapping) PinValue() (string, bool) { return m.attr(attrPinValue) }

// ModuleName returns the value of the `module-name` query attribute.
func (m *Mapping) ModuleName() (string, bool) { return m.attr(attrModuleName) }

// ModulePath returns the value of the `module-path` query attribute.
func (m *Mapping) ModulePath() (string, bool) { return m.attr(attrModulePath) }

// Vendor returns the values recorded for the vendor-specific attribute
// name, in the order they appeared in the URI. The returned slice is the
// mapping's own storage and must not be modified.
func (m *Mapping) Vendor(name string) ([]string, bool) {
	values, ok := m.vendor[name]
	return values, ok
}

// String lists the populated attributes, standard ones in vocabulary
// order followed by vendor attributes in first-seen order.
func (m *Mapping) String() string {
	var parts []string
	for _, entry := range pathVocabulary {
		if value, ok := m.standard[entry.kind]; ok {
			parts = append(parts, entry.name+"="+value)
		}
	}
	for _, entry := range queryVocabulary {
		if value, ok := m.standard[entry.kind]; ok {
			parts = append(parts, entry.name+"="+value)
		}
	}
	for _, name := range m.vendorOrder {
		parts = append(parts, fmt.Sprintf("%s=%v", name, m.vendor[name]))
	}
	return strings.Join(parts, "; ")
}
