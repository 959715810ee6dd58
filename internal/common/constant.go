// Package common contains shared constants and sentinel errors used across
// fieldsync components.
package common

// AuthorizationHeaderName carries the bearer credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header value.
const BearerPrefix = "Bearer "

// ContentTypeJSON is sent with every non-upload request.
const ContentTypeJSON = "application/json"

// APIBasePath is the root every remote resource path is mounted under.
const APIBasePath = "/api"
