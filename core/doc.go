// Package core contains the canonical payment-flow domain contracts, entities,
// and orchestration logic. Host adapters (browser surfaces, transport, stores,
// push channel) must depend on this package; core must not depend on any of
// them.
package core
