package schema

import "fmt"

// SchemaNotFoundError means no document exists for the (layer, business type) pair.
type SchemaNotFoundError struct {
	Layer        Layer
	BusinessType string
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("no %s schema for business type %q", e.Layer, e.BusinessType)
}

// SchemaInvalidError rejects a malformed document before it reaches a merger.
type SchemaInvalidError struct {
	Layer        Layer
	BusinessType string
	Err          error
}

func (e *SchemaInvalidError) Error() string {
	return fmt.Sprintf("invalid %s schema for business type %q: %v", e.Layer, e.BusinessType, e.Err)
}

func (e *SchemaInvalidError) Unwrap() error {
	return e.Err
}
