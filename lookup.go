package guard

import (
	"strings"
)

// credentialSource exposes the request parts a credential can come from.
// Adapters fill it from their framework context.
type credentialSource struct {
	cookie func(name string) string
	header func(name string) string
	query  func(name string) string
}

type extractor func(src credentialSource) string

// parseTokenLookup turns "cookie:session,header:Authorization" into
// extractors tried in order.
func parseTokenLookup(lookup, authScheme string) []extractor {
	parts := strings.Split(lookup, ",")
	extractors := make([]extractor, 0, len(parts))

	for _, part := range parts {
		source, name, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || name == "" {
			continue
		}

		switch source {
		case "cookie":
			extractors = append(extractors, func(src credentialSource) string {
				if src.cookie == nil {
					return ""
				}
				return src.cookie(name)
			})
		case "header":
			extractors = append(extractors, func(src credentialSource) string {
				if src.header == nil {
					return ""
				}
				return stripScheme(src.header(name), authScheme)
			})
		case "query":
			extractors = append(extractors, func(src credentialSource) string {
				if src.query == nil {
					return ""
				}
				return src.query(name)
			})
		}
	}
	return extractors
}

func stripScheme(value, scheme string) string {
	value = strings.TrimSpace(value)
	if value == "" || scheme == "" {
		return value
	}
	if len(value) > len(scheme) && strings.EqualFold(value[:len(scheme)], scheme) && value[len(scheme)] == ' ' {
		return strings.TrimSpace(value[len(scheme)+1:])
	}
	return ""
}

func extractCredential(src credentialSource, extractors []extractor) string {
	for _, extract := range extractors {
		if raw := extract(src); raw != "" {
			return raw
		}
	}
	return ""
}
