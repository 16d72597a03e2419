package main

import (
	"fmt"
	"strings"

	"github.com/noah-isme/buspass-portal/internal/models"
)

// documentFlags collects repeated -doc KIND=REFERENCE values.
type documentFlags []models.DocumentRef

func (d *documentFlags) String() string {
	parts := make([]string, 0, len(*d))
	for _, doc := range *d {
		parts = append(parts, string(doc.Kind)+"="+doc.Reference)
	}
	return strings.Join(parts, ",")
}

func (d *documentFlags) Set(raw string) error {
	kind, ref, ok := strings.Cut(raw, "=")
	kind = strings.ToUpper(strings.TrimSpace(kind))
	ref = strings.TrimSpace(ref)
	if !ok || kind == "" || ref == "" {
		return fmt.Errorf("document must be KIND=REFERENCE, got %q", raw)
	}
	*d = append(*d, models.DocumentRef{Kind: models.DocumentKind(kind), Reference: ref})
	return nil
}
