package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/configurator/internal/repository/memory"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/schema"
)

func TestCategoryBootstrapPartialExistence(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	root := p.AddCategory("Apparel", "")
	shirts := p.AddCategory("Shirts", root)
	p.AddCategory("Polos", shirts)

	_, err := svc.Categories.Bootstrap(ctx, schema.Category{
		Name:          "Apparel",
		Subcategories: []schema.Category{{Name: "Shirts"}, {Name: "Pants"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, p.Calls(memory.OpCreateCategory))
	assert.Equal(t, []string{"Shirts", "Pants"}, p.CategoryChildren("Apparel"))
	assert.Equal(t, []string{"Polos"}, p.CategoryChildren("Shirts"), "grandchildren are untouched")
}

func TestCategoryBootstrapCreatesTree(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	tree := schema.Category{
		Name: "Apparel",
		Subcategories: []schema.Category{
			{Name: "Shirts", Subcategories: []schema.Category{{Name: "Polos"}, {Name: "Tees"}}},
			{Name: "Pants"},
		},
	}

	_, err := svc.Categories.Bootstrap(ctx, tree)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Calls(memory.OpCreateCategory))
	assert.Equal(t, []string{"Polos", "Tees"}, p.CategoryChildren("Shirts"))

	p.ResetCalls()
	_, err = svc.Categories.Bootstrap(ctx, tree)
	require.NoError(t, err)
	assert.Equal(t, 0, p.MutationCalls())
	assert.Equal(t, 1, p.Calls(memory.OpGetCategory), "only Shirts declares subcategories")
}

func TestCategoryBootstrapRecursesIntoExisting(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	root := p.AddCategory("Apparel", "")
	p.AddCategory("Shirts", root)

	_, err := svc.Categories.Bootstrap(ctx, schema.Category{
		Name: "Apparel",
		Subcategories: []schema.Category{
			{Name: "Shirts", Subcategories: []schema.Category{{Name: "Tees"}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Calls(memory.OpCreateCategory))
	assert.Equal(t, []string{"Tees"}, p.CategoryChildren("Shirts"))
}

func TestCategoryBootstrapFailurePropagates(t *testing.T) {
	p, svc, ctx, _ := newTestServices(t)
	p.FailOn(memory.OpCreateCategory, "Pants", errors.New("denied"))

	_, err := svc.Categories.Bootstrap(ctx, schema.Category{
		Name:          "Apparel",
		Subcategories: []schema.Category{{Name: "Pants"}, {Name: "Shirts"}},
	})
	var rerr *errors.ReconcileError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Pants", rerr.Name)
	assert.Empty(t, p.CategoryChildren("Apparel"))
}

func TestRichText(t *testing.T) {
	out, err := RichText("Classic Tee", "Soft cotton.", testNow)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, float64(testNow.Time.UnixMilli()), doc["time"])
	assert.Equal(t, "2.24.3", doc["version"])
	blocks := doc["blocks"].([]any)
	require.Len(t, blocks, 1)
	block := blocks[0].(map[string]any)
	assert.Equal(t, "classic-tee", block["id"])
	assert.Equal(t, "paragraph", block["type"])
	assert.Equal(t, map[string]any{"text": "Soft cotton."}, block["data"])

	empty, err := RichText("x", "", testNow)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
