// Package validate sanitizes collections received from the classification
// service. Malformed elements are dropped; only two aggregate conditions are
// reported as errors: the payload is not an array (ErrInvalidResponseFormat)
// or every element was dropped (ErrNoValidData).
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
)

// Rule is the semantic check applied to a decoded element.
type Rule[T any] func(item T) error

type Result[T any] struct {
	Items   []T
	Dropped int
}

type Validator[T any] struct {
	kind   string
	schema *openapi3.Schema
	rule   Rule[T]
}

// New builds a validator for elements of kind. schema is the structural
// contract of one element and may be nil; rule may be nil as well.
func New[T any](kind string, schema *openapi3.Schema, rule Rule[T]) *Validator[T] {
	return &Validator[T]{kind: kind, schema: schema, rule: rule}
}

func (v *Validator[T]) Validate(raw json.RawMessage) (Result[T], error) {
	operation := "validate " + v.kind
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Result[T]{}, domain.WrapError(domain.ErrInvalidResponseFormat, operation,
			fmt.Errorf("expected a JSON array, got %s", describe(trimmed)))
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return Result[T]{}, domain.WrapError(domain.ErrInvalidResponseFormat, operation, err)
	}

	items := make([]T, 0, len(elements))
	dropped := 0
	for _, element := range elements {
		item, err := v.element(element)
		if err != nil {
			dropped++
			continue
		}
		items = append(items, item)
	}

	if len(elements) > 0 && len(items) == 0 {
		return Result[T]{Dropped: dropped}, domain.WrapError(domain.ErrNoValidData, operation,
			fmt.Errorf("all %d elements were invalid", len(elements)))
	}
	return Result[T]{Items: items, Dropped: dropped}, nil
}

// One checks a single object response, such as the classify answer. Any
// structural or semantic failure makes the whole response unusable.
func (v *Validator[T]) One(raw json.RawMessage) (T, error) {
	operation := "validate " + v.kind
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		var zero T
		return zero, domain.WrapError(domain.ErrInvalidResponseFormat, operation,
			fmt.Errorf("expected a JSON object, got %s", describe(trimmed)))
	}
	item, err := v.element(trimmed)
	if err != nil {
		return item, domain.WrapError(domain.ErrInvalidResponseFormat, operation, err)
	}
	return item, nil
}

// Filter applies the semantic rule to already decoded items. A validated
// collection passes through unchanged.
func (v *Validator[T]) Filter(items []T) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if v.rule != nil && v.rule(item) != nil {
			continue
		}
		out = append(out, item)
	}
	if len(items) > 0 && len(out) == 0 {
		return out, domain.WrapError(domain.ErrNoValidData, "filter "+v.kind,
			fmt.Errorf("all %d elements were invalid", len(items)))
	}
	return out, nil
}

func (v *Validator[T]) element(raw json.RawMessage) (T, error) {
	var item T
	if v.schema != nil {
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return item, domain.WrapError(domain.ErrValidation, v.kind, err)
		}
		if err := v.schema.VisitJSON(generic); err != nil {
			return item, domain.WrapError(domain.ErrValidation, v.kind, err)
		}
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, domain.WrapError(domain.ErrValidation, v.kind, err)
	}
	if v.rule != nil {
		if err := v.rule(item); err != nil {
			return item, domain.WrapError(domain.ErrValidation, v.kind, err)
		}
	}
	return item, nil
}

func describe(raw []byte) string {
	if len(raw) == 0 {
		return "an empty body"
	}
	switch raw[0] {
	case '{':
		return "an object"
	case '"':
		return "a string"
	case 'n':
		return "null"
	case 't', 'f':
		return "a boolean"
	default:
		return "a scalar"
	}
}
