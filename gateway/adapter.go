package gateway

import "net/http"

// VendorAdapter translates between the normalized chat model and one
// vendor's wire format. Adapters are stateless per call; adding a vendor
// means registering a new implementation, not editing a branch chain.
type VendorAdapter interface {
	// Vendor returns the adapter key matched against EndpointDescriptor.Vendor.
	Vendor() string

	// ToWire serializes a normalized request into the vendor's JSON payload.
	// Roles must already be normalized by the gateway.
	ToWire(ep EndpointDescriptor, req ChatRequest) ([]byte, error)

	// FromWire parses a vendor response body. It never fails: JSON-decode
	// errors degrade to a ChatResponse carrying the raw body text.
	FromWire(ep EndpointDescriptor, body []byte) ChatResponse

	// FromChunk parses one streaming record into a response fragment.
	// ok is false for records carrying no content (skipped, not fatal).
	FromChunk(chunk RawChunk) (fragment ChatResponse, ok bool)

	// AuthHeaders builds the vendor's authentication headers. The scheme is
	// vendor-parameterized; callers never construct credentials themselves.
	AuthHeaders(ep EndpointDescriptor) http.Header
}

// AdapterRegistry maps vendor identifiers to adapter implementations.
type AdapterRegistry struct {
	adapters map[string]VendorAdapter
	fallback VendorAdapter
}

// NewAdapterRegistry creates a registry pre-populated with the built-in
// adapter families. The generic adapter doubles as the fallback for
// unrecognized vendor identifiers.
func NewAdapterRegistry() *AdapterRegistry {
	generic := &GenericAdapter{}
	r := &AdapterRegistry{
		adapters: make(map[string]VendorAdapter),
		fallback: generic,
	}
	r.Register(&OpenAIAdapter{})
	r.Register(&AnthropicAdapter{})
	r.Register(generic)
	return r
}

// Register adds or replaces an adapter under its vendor key.
func (r *AdapterRegistry) Register(a VendorAdapter) {
	r.adapters[a.Vendor()] = a
}

// Lookup returns the adapter for a vendor identifier, falling back to the
// generic adapter when the vendor is unknown.
func (r *AdapterRegistry) Lookup(vendor string) VendorAdapter {
	if a, ok := r.adapters[vendor]; ok {
		return a
	}
	return r.fallback
}
