// Package contract embeds the OpenAPI description of the classification
// service and hands out its component schemas for response validation.
package contract

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

const (
	SchemaCategoryLabel  = "CategoryLabel"
	SchemaDocumentRecord = "DocumentRecord"
	SchemaStatEntry      = "StatEntry"
	SchemaUploadResponse = "UploadResponse"
)

type Contract struct {
	doc *openapi3.T
}

func Load(ctx context.Context) (*Contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("load openapi contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi contract: %w", err)
	}
	return &Contract{doc: doc}, nil
}

// MustLoad is Load for static wiring and tests.
func MustLoad() *Contract {
	c, err := Load(context.Background())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Contract) Schema(name string) (*openapi3.Schema, error) {
	if c == nil || c.doc == nil || c.doc.Components == nil {
		return nil, fmt.Errorf("contract: schemas not loaded")
	}
	ref, ok := c.doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("contract: unknown schema %q", name)
	}
	return ref.Value, nil
}

// Version is the info.version of the embedded contract.
func (c *Contract) Version() string {
	if c == nil || c.doc == nil || c.doc.Info == nil {
		return ""
	}
	return c.doc.Info.Version
}
