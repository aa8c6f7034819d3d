package pkcs11uri

import (
	"strings"

	"github.com/cloudflare/cfssl/log"
)

// A WarningHandler receives advisory ("SHOULD"-level) diagnostics.
// Handlers must be safe for whatever concurrency the caller applies to
// the Parser itself.
type WarningHandler func(format string, args ...interface{})

// A Parser turns PKCS#11 URIs into Mappings. The zero-cost default
// (NewParser with no options) applies full RFC 7512 validation and sends
// advisory diagnostics to cfssl's log package at warning level. A Parser
// holds no per-parse state and may be shared across goroutines.
type Parser struct {
	validate bool
	warnf    WarningHandler
}

// An Option configures a Parser.
type Option func(*Parser)

// WithWarningHandler routes advisory diagnostics to h instead of the
// default cfssl warning log.
func WithWarningHandler(h WarningHandler) Option {
	return func(p *Parser) { p.warnf = h }
}

// WithoutValidation trusts the input: attribute name and value rules,
// duplicate detection and naming-collision detection are all skipped.
// Repeated single-valued attributes overwrite instead of failing, so
// several documented behaviors change; use only on URIs produced by
// tooling you control. Malformed fragments (no '=') still fail.
func WithoutValidation() Option {
	return func(p *Parser) { p.validate = false }
}

// NewParser returns a Parser configured by opts.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		validate: true,
		warnf:    log.Warningf,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes uri with a default Parser. On failure the returned error
// is a *ParseError locating the first violation.
func Parse(uri string) (*Mapping, error) {
	return NewParser().Parse(uri)
}

// Parse decodes and validates a PKCS#11 URI. Parsing is fail-fast: the
// first fragment in violation of RFC 7512 aborts the parse and no
// partial Mapping is returned. The Mapping's values are substrings of
// uri, still percent-encoded.
func (p *Parser) Parse(uri string) (*Mapping, error) {
	if !strings.HasPrefix(uri, Scheme) {
		return nil, &ParseError{
			URI:       tidy(uri),
			Violation: "Invalid `pk11-URI`: expected `\"pkcs11:\" pk11-path [ \"?\" pk11-query ]`.",
			Help:      "PKCS#11 URI must start with `pkcs11:`.",
		}
	}

	// A lone `pkcs11:` scheme is valid, so the empty mapping exists
	// before any attribute work.
	mapping := newMapping()

	queryIndex := strings.IndexByte(uri, '?')
	pathEnd := len(uri)
	if queryIndex >= 0 {
		pathEnd = queryIndex
	}

	if path := uri[len(Scheme):pathEnd]; path != "" {
		for i, fragment := range strings.Split(path, ";") {
			if v := p.assignPath(fragment, mapping); v != nil {
				return nil, p.position(v, uri, path, fragment, i, pathComponent)
			}
		}
	}

	if queryIndex >= 0 {
		if query := uri[queryIndex+1:]; query != "" {
			for i, fragment := range strings.Split(query, "&") {
				if v := p.assignQuery(fragment, mapping); v != nil {
					return nil, p.position(v, uri, query, fragment, i, queryComponent)
				}
			}
		}

		// "...semantics of using both attributes in the same URI string is
		// implementation specific but such use SHOULD be avoided."
		if _, ok := mapping.ModuleName(); ok {
			if _, ok := mapping.ModulePath(); ok {
				p.warnf("using both `module-name` and `module-path` SHOULD be avoided. Attribute `module-name` is preferred due to its system-independent nature.")
			}
		}
		// "If a URI contains both "pin-source" and "pin-value" query
		// attributes, the URI SHOULD be refused as invalid."
		if _, ok := mapping.PinSource(); ok {
			if _, ok := mapping.PinValue(); ok {
				p.warnf("a PKCS#11 URI containing both \"pin-source\" and \"pin-value\" query attributes SHOULD be refused as invalid.")
			}
		}
	}

	return mapping, nil
}

// assignPath splits one `;`-delimited fragment into name and value,
// classifies and validates it, and records it in the mapping.
func (p *Parser) assignPath(fragment string, mapping *Mapping) *violation {
	c, value, v := p.splitFragment(fragment, pathComponent)
	if v != nil {
		return v
	}
	if p.validate {
		if v := validatePathValue(c, value); v != nil {
			return v
		}
	}
	p.maybeWarnPath(c, value)
	return mapping.assign(c, value, pathComponent, p.validate)
}

// assignQuery is assignPath's `&`-delimited counterpart.
func (p *Parser) assignQuery(fragment string, mapping *Mapping) *violation {
	c, value, v := p.splitFragment(fragment, queryComponent)
	if v != nil {
		return v
	}
	if p.validate {
		if v := validateQueryValue(value); v != nil {
			return v
		}
	}
	p.maybeWarnQuery(c, value)
	return mapping.assign(c, value, queryComponent, p.validate)
}

func (p *Parser) splitFragment(fragment string, comp component) (classified, string, *violation) {
	name, value, found := strings.Cut(fragment, "=")
	if !found {
		return classified{}, "", &violation{
			text: "Malformed component.",
			help: "Please refer to RFC7512 for acceptable path|query attribute values.",
		}
	}
	c, v := p.classify(strings.TrimSpace(name), comp)
	if v != nil {
		return classified{}, "", v
	}
	return c, strings.TrimSpace(value), nil
}

// position attaches an exact character span to a violation. The whole
// URI, the enclosing region and the fragment are re-tidied independently
// (tidying is idempotent, so their offsets stay consistent) and the
// fragment is located by substring search within its region. An empty
// tidied fragment means a doubled or trailing delimiter produced it; the
// violation is then reclassified and the span pinned on the i-th
// delimiter itself.
func (p *Parser) position(v *violation, uri, region, fragment string, i int, comp component) *ParseError {
	tidyURI := tidy(uri)
	tidyRegion := tidy(region)
	tidyFragment := tidy(fragment)

	text, help := v.text, v.help
	var start int
	if tidyFragment != "" {
		start = strings.Index(tidyRegion, tidyFragment)
	} else {
		if comp == pathComponent {
			text = "Misplaced path delimiter."
			help = "Remove the misplaced ';' delimiter."
			start = nthIndex(tidyRegion, ';', i)
		} else {
			text = "Misplaced query delimiter."
			help = "Remove the misplaced '&' delimiter."
			start = nthIndex(tidyRegion, '&', i)
		}
	}

	if comp == pathComponent {
		start += len(Scheme)
	} else {
		start += strings.IndexByte(tidyURI, '?') + 1
	}

	return &ParseError{
		URI:       tidyURI,
		Start:     start,
		End:       start + len(tidyFragment),
		Violation: text,
		Help:      help,
	}
}

// nthIndex locates the n-th (0-based) occurrence of delim in s, falling
// back to the last byte when fewer occurrences exist.
func nthIndex(s string, delim byte, n int) int {
	seen := 0
	for i := 0; i < len(s); i++ {
		if s[i] == delim {
			if seen == n {
				return i
			}
			seen++
		}
	}
	if len(s) == 0 {
		return 0
	}
	return len(s) - 1
}

// tidy strips the '\n' and '\t' formatting RFC 7512 permits for
// readability, establishing the basis for reliable offset reporting.
func tidy(maybeMessy string) string {
	return strings.NewReplacer("\n", "", "\t", "").Replace(maybeMessy)
}
