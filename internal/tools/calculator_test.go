package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/humcp/humcp/internal/schema"
)

func findTool(t *testing.T, ds []schema.Descriptor, name string) schema.Descriptor {
	t.Helper()
	for _, d := range ds {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("tool %q not found", name)
	return schema.Descriptor{}
}

func TestCalculatorBinaryOps(t *testing.T) {
	ds := calculatorTools()
	tests := []struct {
		tool string
		a, b float64
		want float64
	}{
		{"calculator_add", 2, 3, 5},
		{"calculator_subtract", 10, 4, 6},
		{"calculator_multiply", 6, 7, 42},
		{"calculator_divide", 9, 2, 4.5},
		{"calculator_power", 2, 10, 1024},
	}
	for _, tt := range tests {
		d := findTool(t, ds, tt.tool)
		got, err := d.Handler(context.Background(), map[string]any{"a": tt.a, "b": tt.b})
		if err != nil {
			t.Errorf("%s: %v", tt.tool, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s(%v, %v) = %v, want %v", tt.tool, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCalculatorDivideByZero(t *testing.T) {
	d := findTool(t, calculatorTools(), "calculator_divide")
	_, err := d.Handler(context.Background(), map[string]any{"a": 1.0, "b": 0.0})
	if err == nil || !strings.Contains(err.Error(), "zero") {
		t.Errorf("expected division-by-zero error, got %v", err)
	}
}

func TestCalculatorFactorial(t *testing.T) {
	d := findTool(t, calculatorTools(), "calculator_factorial")

	tests := []struct {
		n    int64
		want int64
	}{
		{0, 1},
		{1, 1},
		{5, 120},
		{20, 2432902008176640000},
	}
	for _, tt := range tests {
		got, err := d.Handler(context.Background(), map[string]any{"n": tt.n})
		if err != nil {
			t.Errorf("factorial(%d): %v", tt.n, err)
			continue
		}
		if got != tt.want {
			t.Errorf("factorial(%d) = %v, want %d", tt.n, got, tt.want)
		}
	}

	if _, err := d.Handler(context.Background(), map[string]any{"n": int64(-1)}); err == nil {
		t.Error("negative factorial should fail")
	}
	if _, err := d.Handler(context.Background(), map[string]any{"n": int64(21)}); err == nil {
		t.Error("factorial beyond int64 range should fail")
	}
}

func TestCalculatorDescriptorsValid(t *testing.T) {
	for _, d := range calculatorTools() {
		if err := d.Validate(); err != nil {
			t.Errorf("%s: %v", d.Name, err)
		}
	}
}
