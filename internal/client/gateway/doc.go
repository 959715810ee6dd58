// Package gateway is the Remote Gateway: a thin request/response layer over
// the field-survey REST API.
//
// Every call returns a models.Envelope. Transport errors, timeouts and
// non-2xx responses are folded into failure envelopes here, so nothing
// downstream ever handles *url.Error or status codes directly:
//
//   - no response (DNS, refused, timeout): Status 0, KindTransport
//   - 401/403: the HTTP status, KindAuth
//   - any other non-2xx: the HTTP status, KindServer, server message if any
//
// Successful bodies pass once through a Normalizer that maps the server's
// varying field names (id, appointmentId, risktemplateid, ...) onto one
// shape before they reach the cache or the caller.
//
// Requests carry "Authorization: Bearer <token>" whenever the
// CredentialProvider has a token; otherwise they go out unauthenticated.
package gateway
