// Package core holds the token lifecycle service and its domain contracts:
// tokens, identities, configuration, and the store/endpoint/directory
// interfaces the adapters implement. Adapter packages depend on core; core
// never depends on a concrete transport or storage implementation.
package core
