package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/client/gateway"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/common"
)

// Remote is the part of gateway.Gateway the services depend on.
type Remote interface {
	Request(ctx context.Context, method, path string, body any) models.Envelope
	Resolve(ctx context.Context, candidates ...gateway.RequestSpec) models.Envelope
}

// listItems accepts a bare JSON array or a {"data": [...]} wrapper.
func listItems(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("expected a list: %w", common.ErrorIncorrectPayload)
	}
	return wrapped.Data, nil
}

// idOf returns the "id" of a JSON object as a string, or "". Numeric ids
// are accepted as the gateway would coerce them.
func idOf(raw json.RawMessage) string {
	var v struct {
		ID any `json:"id"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch id := v.ID.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	}
	return ""
}

// DecodePage reads a list envelope into a page. A bare array becomes a
// single page holding every item.
func DecodePage[T any](env models.Envelope) (models.Page[T], error) {
	var page models.Page[T]
	if !env.Success {
		return page, env.Err()
	}
	var items []T
	if err := json.Unmarshal(env.Data, &items); err == nil {
		page.Data = items
		page.Pagination = models.Pagination{Page: 1, PageSize: len(items), TotalItems: len(items), TotalPages: 1}
		return page, nil
	}
	if err := env.Decode(&page); err != nil {
		return page, err
	}
	return page, nil
}
