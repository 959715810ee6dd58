// Package models defines the client-side data shapes shared by the store,
// the gateway, the read path and the sync engine.
package models

import (
	"encoding/json"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/common"
)

// FailureKind classifies why an Envelope is not successful.
type FailureKind string

const (
	KindNone      FailureKind = ""
	KindTransport FailureKind = "transport"
	KindServer    FailureKind = "server"
	KindAuth      FailureKind = "auth"
	KindCacheMiss FailureKind = "cache_miss"
	KindOffline   FailureKind = "offline"
	KindBusy      FailureKind = "busy"
	KindInternal  FailureKind = "internal"
)

// Envelope is the uniform result of every data-access operation.
//
// Status is the HTTP status of the response. A zero Status on a
// KindTransport failure means no response was received at all; cache misses
// carry no status.
//
// Invariants: a failed envelope carries no Data, and FromCache implies Success.
// Use OK, Cached and Fail rather than building the struct by hand.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Status    int             `json:"status,omitempty"`
	Message   string          `json:"message,omitempty"`
	FromCache bool            `json:"fromCache"`
	Kind      FailureKind     `json:"kind,omitempty"`
}

// OK wraps a live remote payload.
func OK(data json.RawMessage, status int) Envelope {
	return Envelope{Success: true, Data: data, Status: status}
}

// Cached wraps a payload read from the local store. message is advisory and
// may be empty.
func Cached(data json.RawMessage, message string) Envelope {
	return Envelope{Success: true, Data: data, FromCache: true, Message: message}
}

// Fail builds a failure envelope.
func Fail(kind FailureKind, status int, message string) Envelope {
	return Envelope{Success: false, Status: status, Message: message, Kind: kind}
}

// Decode unmarshals Data into v. It fails on unsuccessful or empty envelopes.
func (e Envelope) Decode(v any) error {
	if !e.Success {
		return e.Err()
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("decode envelope: %w", common.ErrorIncorrectPayload)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode envelope: %w: %v", common.ErrorIncorrectPayload, err)
	}
	return nil
}

// Err maps the failure kind onto the shared sentinel errors. It returns nil
// for successful envelopes.
func (e Envelope) Err() error {
	if e.Success {
		return nil
	}
	var base error
	switch e.Kind {
	case KindTransport:
		base = common.ErrUnavailable
	case KindAuth:
		base = common.ErrUnauthorized
	case KindServer:
		base = common.ErrServer
	case KindCacheMiss:
		base = common.ErrLocalDataNotAvailable
	case KindOffline:
		base = common.ErrOffline
	case KindBusy:
		base = common.ErrAlreadySyncing
	default:
		base = common.ErrInternal
	}
	if e.Message == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, e.Message)
}
