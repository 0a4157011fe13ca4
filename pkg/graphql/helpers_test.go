package graphql

import (
	"context"
	"testing"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec/sources"
	"github.com/dd0wney/cluso-anatomy/pkg/templates"
)

const circulationDoc = `{
	"arterial": {"id": "Aorta", "regions": ["Torso"], "links": [
		{"id": "LeftArm", "regions": ["LeftArm"], "bridge": ["LeftArmVein"]},
		{"id": "RightArm", "regions": ["RightArm"], "bridge": ["RightArmVein"]}
	]},
	"venous": [
		{"id": "LeftArmVein", "regions": ["LeftArm"], "links": [{"id": "VenaCava", "regions": ["Torso"]}]},
		{"id": "RightArmVein", "regions": ["RightArm"]}
	]
}`

var humanCirculation = anatomyspec.Key{Template: "human", Network: "circulation"}

func setupCache(t *testing.T) *templates.Cache {
	t.Helper()

	doc, err := anatomyspec.Parse([]byte(circulationDoc), anatomyspec.FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := doc.Bind(humanCirculation); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	src := sources.NewMemory()
	if err := src.Put(doc); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return templates.New(templates.SourceBuilder(src))
}

func setupSchema(t *testing.T) (graphql.Schema, *templates.Cache) {
	t.Helper()
	cache := setupCache(t)
	schema, err := GenerateSchema(cache)
	if err != nil {
		t.Fatalf("GenerateSchema() error = %v", err)
	}
	return schema, cache
}

func run(t *testing.T, schema graphql.Schema, query string, vars map[string]any) map[string]any {
	t.Helper()
	result := Execute(context.Background(), schema, Request{Query: query, Variables: vars})
	if result.HasErrors() {
		t.Fatalf("query errors: %v", result.Errors)
	}
	data, ok := result.Data.(map[string]any)
	if !ok {
		t.Fatalf("Expected data map, got %T", result.Data)
	}
	return data
}

// ids extracts the id field from a list of node objects.
func ids(t *testing.T, v any) []string {
	t.Helper()
	list, ok := v.([]any)
	if !ok {
		t.Fatalf("Expected list, got %T", v)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, item.(map[string]any)["id"].(string))
	}
	return out
}
