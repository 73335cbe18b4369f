// Package inbound routes action-tagged messages from the extension surfaces
// (popup, content scripts) to the payment core and guarantees exactly one
// reply per message, including on handler panics.
package inbound
