package searchindex

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// KnowledgeClass returns the schema for the knowledge passages class.
// Vectors are supplied by the embedding gateway.
func KnowledgeClass(name string) *models.Class {
	return &models.Class{
		Class:      name,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "text", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
		},
	}
}

// BootstrapWeaviate creates the knowledge class if it does not exist.
func BootstrapWeaviate(ctx context.Context, baseURL, className string) error {
	cl, err := newClient(baseURL)
	if err != nil {
		return err
	}
	ex, err := cl.Schema().ClassGetter().WithClassName(className).Do(ctx)
	if err == nil && ex != nil {
		return nil
	}
	if err := cl.Schema().ClassCreator().WithClass(KnowledgeClass(className)).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", className, err)
	}
	return nil
}
