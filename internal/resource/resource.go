// Package resource is the single configurable CRUD implementation behind
// every entity screen. One Schema per entity replaces the near-identical
// screen variants the back office used to maintain: list path, mutate path,
// envelope key, and required fields are data, not code.
package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/sal-retail/backoffice/internal/apiclient"
)

// Schema declares how one entity type maps onto the upstream API.
type Schema struct {
	// Name identifies the entity in routes and error messages.
	Name string
	// ListPath is the collection endpoint.
	ListPath string
	// MutatePath is the base path for create/update/delete. It can differ
	// from ListPath: discounts list from /diskon but mutate under
	// /discounts.
	MutatePath string
	// EnvelopeKey is the named envelope key some list endpoints use.
	EnvelopeKey string
	// Required lists field names that must be present and non-empty on
	// both create and update.
	Required []string
	// RequiredOnCreate lists fields needed only at creation, like a user's
	// initial password.
	RequiredOnCreate []string
}

// ValidationError is a client-side rejection: the form is incomplete, so
// no request was issued.
type ValidationError struct {
	Schema string
	Field  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: required field %q is missing", e.Schema, e.Field)
}

// Resource is the type-erased view the gateway routes against.
type Resource interface {
	Name() string
	ListJSON(ctx context.Context) ([]byte, error)
	Create(ctx context.Context, fields map[string]any) error
	Update(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
}

// Client is the uniform CRUD contract for one entity type: list, create,
// update, delete, each a direct pass-through to one upstream endpoint.
type Client[T any] struct {
	api    *apiclient.Client
	schema Schema
}

// NewClient builds a typed CRUD client from a schema.
func NewClient[T any](api *apiclient.Client, schema Schema) *Client[T] {
	return &Client[T]{api: api, schema: schema}
}

// Name returns the schema name.
func (c *Client[T]) Name() string { return c.schema.Name }

// Schema returns the schema driving this client.
func (c *Client[T]) Schema() Schema { return c.schema }

// List fetches and decodes all rows.
func (c *Client[T]) List(ctx context.Context) ([]T, error) {
	raw, err := c.ListJSON(ctx)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrapf(err, "decode %s", c.schema.Name)
	}
	return rows, nil
}

// ListJSON fetches all rows and returns the raw unwrapped JSON array.
func (c *Client[T]) ListJSON(ctx context.Context) ([]byte, error) {
	body, err := c.api.Get(ctx, c.schema.ListPath, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", c.schema.Name)
	}

	keys := []string{}
	if c.schema.EnvelopeKey != "" {
		keys = append(keys, c.schema.EnvelopeKey)
	}
	raw, err := apiclient.UnwrapList(body, keys...)
	if err != nil {
		return nil, errors.Wrapf(err, "unwrap %s", c.schema.Name)
	}
	return raw, nil
}

// Create validates required fields and posts a new record.
func (c *Client[T]) Create(ctx context.Context, fields map[string]any) error {
	if err := c.validate(fields, true); err != nil {
		return err
	}
	if _, err := c.api.Post(ctx, c.schema.MutatePath, fields); err != nil {
		return errors.Wrapf(err, "create %s", c.schema.Name)
	}
	return nil
}

// Update validates required fields and puts the record.
func (c *Client[T]) Update(ctx context.Context, id int64, fields map[string]any) error {
	if err := c.validate(fields, false); err != nil {
		return err
	}
	if _, err := c.api.Put(ctx, fmt.Sprintf("%s/%d", c.schema.MutatePath, id), fields); err != nil {
		return errors.Wrapf(err, "update %s %d", c.schema.Name, id)
	}
	return nil
}

// Delete removes the record.
func (c *Client[T]) Delete(ctx context.Context, id int64) error {
	if err := c.api.Delete(ctx, fmt.Sprintf("%s/%d", c.schema.MutatePath, id)); err != nil {
		return errors.Wrapf(err, "delete %s %d", c.schema.Name, id)
	}
	return nil
}

func (c *Client[T]) validate(fields map[string]any, creating bool) error {
	required := c.schema.Required
	if creating {
		required = append(append([]string{}, required...), c.schema.RequiredOnCreate...)
	}
	for _, field := range required {
		if !present(fields[field]) {
			return &ValidationError{Schema: c.schema.Name, Field: field}
		}
	}
	return nil
}

// present reports whether a form value counts as filled in. Zero numbers
// are allowed; absent values, nils, and blank strings are not.
func present(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(value) != ""
	default:
		return true
	}
}
