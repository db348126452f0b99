package contract

import (
	"context"
	"testing"
)

func TestLoadExposesElementSchemas(t *testing.T) {
	c, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Version() != "1.0.0" {
		t.Fatalf("unexpected contract version %q", c.Version())
	}

	for _, name := range []string{SchemaCategoryLabel, SchemaDocumentRecord, SchemaStatEntry, SchemaUploadResponse} {
		if _, err := c.Schema(name); err != nil {
			t.Fatalf("Schema(%s) error = %v", name, err)
		}
	}
	if _, err := c.Schema("Missing"); err == nil {
		t.Fatalf("expected error for unknown schema")
	}
}

func TestStatEntrySchemaRejectsWrongTypes(t *testing.T) {
	schema, err := MustLoad().Schema(SchemaStatEntry)
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}

	good := map[string]any{"classification": "Legal Document", "confidence": 80.5}
	if err := schema.VisitJSON(good); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}

	bad := map[string]any{"classification": "Legal Document", "confidence": "high"}
	if err := schema.VisitJSON(bad); err == nil {
		t.Fatalf("expected string confidence to be rejected")
	}

	missing := map[string]any{"confidence": 10.0}
	if err := schema.VisitJSON(missing); err == nil {
		t.Fatalf("expected missing classification to be rejected")
	}
}
