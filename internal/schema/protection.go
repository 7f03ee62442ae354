// internal/schema/protection.go
package schema

import "net/http"

// EndpointProtection flags which generated endpoints require a bearer token
// issued by the collection's linked auth system. A closed struct, not an
// open map: the verb set is fixed.
type EndpointProtection struct {
	Get    bool `json:"get"`
	Post   bool `json:"post"`
	Put    bool `json:"put"`
	Delete bool `json:"delete"`
}

// Protects reports whether the given HTTP method is flagged. Unknown
// methods are never protected.
func (p EndpointProtection) Protects(method string) bool {
	switch method {
	case http.MethodGet:
		return p.Get
	case http.MethodPost:
		return p.Post
	case http.MethodPut:
		return p.Put
	case http.MethodDelete:
		return p.Delete
	}
	return false
}

// Any reports whether at least one verb is protected. A schema with any
// protected verb must reference an auth system.
func (p EndpointProtection) Any() bool {
	return p.Get || p.Post || p.Put || p.Delete
}
