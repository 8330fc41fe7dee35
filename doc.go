// Package spt implements the checkout-completion flow of the Agentic
// Commerce Protocol (ACP) using shared payment tokens: short-lived,
// amount-capped credentials issued by a payment network in exchange for a
// buyer's payment instrument, so the seller never sees the raw instrument.
//
// # Facilitator side
//
// [Client] talks to an ACP-compliant seller backend (create, fetch, update,
// complete, and cancel checkout sessions). [Facilitator] drives the full
// completion sequence: it fetches the session, resolves the authoritative
// total with [ResolveTotal], exchanges the buyer's payment instrument for a
// delegated token through a [TokenIssuer], and submits the completion request
// carrying that token. Each hop runs under its own bounded context so a
// stalled network call cannot block the pipeline indefinitely.
//
// # Issuer side
//
// [Issuer] implements the token issuer's lifecycle rules: issuance against a
// non-empty payment instrument, lookup with lazy expiry enforcement, and a
// single-use consume transition. [NewIssuerHandler] exposes that lifecycle
// over net/http with the wire format payment networks use for shared payment
// tokens. Token records live behind the injected [TokenStore];
// [NewMemoryTokenStore] provides the in-process implementation.
//
// [IssuerClient] satisfies [TokenIssuer] over HTTP and works against both the
// bundled issuer daemon and a live payment network, selected purely by
// configuration.
package spt
