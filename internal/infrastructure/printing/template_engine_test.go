package printing

import (
	"context"
	"html/template"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplateEngine(t *testing.T) {
	engine := NewTemplateEngine()
	funcMap := engine.GetFuncMap()

	assert.Len(t, funcMap, 2)
	assert.NotNil(t, funcMap["formatMoney"])
	assert.NotNil(t, funcMap["formatDecimal"])
}

func TestTemplateEngine_WithFuncs(t *testing.T) {
	engine := NewTemplateEngine(WithFuncs(template.FuncMap{
		"shout": func(s string) string { return s + "!" },
	}))

	html, err := engine.RenderString(context.Background(), "t", `{{shout .}}`, "Olá")
	require.NoError(t, err)
	assert.Equal(t, "Olá!", html)
}

func TestTemplateEngine_Render(t *testing.T) {
	engine := NewTemplateEngine()

	result, err := engine.Render(context.Background(), &RenderTemplateRequest{
		Name:    "greeting",
		Content: `<p>{{.Name}} deve {{formatMoney .Amount}}</p>`,
		Data:    map[string]interface{}{"Name": "Maria", "Amount": "12.5"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>Maria deve R$ 12.50</p>", result.HTML)
	assert.GreaterOrEqual(t, result.RenderDuration.Nanoseconds(), int64(0))
}

func TestTemplateEngine_Render_AdditionalFuncs(t *testing.T) {
	engine := NewTemplateEngine()

	result, err := engine.Render(context.Background(), &RenderTemplateRequest{
		Content:         `{{double 2}}`,
		AdditionalFuncs: template.FuncMap{"double": func(n int) int { return n * 2 }},
	})
	require.NoError(t, err)
	assert.Equal(t, "4", result.HTML)

	// request funcs do not leak into the engine
	_, ok := engine.GetFuncMap()["double"]
	assert.False(t, ok)
}

func TestTemplateEngine_Render_Errors(t *testing.T) {
	engine := NewTemplateEngine()
	ctx := context.Background()

	_, err := engine.Render(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidHTML, err.(*RenderError).Code)

	_, err = engine.Render(ctx, &RenderTemplateRequest{Content: ""})
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidHTML, err.(*RenderError).Code)

	_, err = engine.Render(ctx, &RenderTemplateRequest{Content: "{{.Name"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidHTML, err.(*RenderError).Code)

	_, err = engine.Render(ctx, &RenderTemplateRequest{Content: "{{.Missing.Field}}", Data: map[string]int{}})
	require.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = engine.Render(cancelled, &RenderTemplateRequest{Content: "ok"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeRenderFailed, err.(*RenderError).Code)
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"integer text", "10", "R$ 10.00"},
		{"half rounds up", "10.005", "R$ 10.01"},
		{"below half", "10.0049", "R$ 10.00"},
		{"negative half rounds away from zero", "-0.125", "R$ -0.13"},
		{"decimal value", decimal.RequireFromString("5"), "R$ 5.00"},
		{"int", 3, "R$ 3.00"},
		{"float", 2.5, "R$ 2.50"},
		{"unparseable", "abc", "R$ 0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMoney(tt.input))
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "1.00", formatDecimal("1", 2))
	assert.Equal(t, "10.00", formatDecimal("10.0000", 2))
	assert.Equal(t, "0.333", formatDecimal("0.3333", 3))

	var nilDecimal *decimal.Decimal
	assert.Equal(t, "0.00", formatDecimal(nilDecimal, 2))
}
