package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/humcp/humcp/internal/schema"
)

// numParam is a shorthand for a required number parameter.
func numParam(name, desc string) schema.Parameter {
	return schema.Parameter{Name: name, Type: schema.TypeNumber, Required: true, Description: desc}
}

// binaryOp builds a calculator descriptor for an operation on (a, b).
func binaryOp(name, summary, aDesc, bDesc string, op func(a, b float64) (any, error)) schema.Descriptor {
	return schema.Descriptor{
		Name:    name,
		Summary: summary,
		Params: schema.Params{
			numParam("a", aDesc),
			numParam("b", bDesc),
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			a := args["a"].(float64)
			b := args["b"].(float64)
			return op(a, b)
		},
	}
}

func calculatorTools() []schema.Descriptor {
	return []schema.Descriptor{
		binaryOp("calculator_add", "Add two numbers and return the result.",
			"First number", "Second number",
			func(a, b float64) (any, error) { return a + b, nil }),

		binaryOp("calculator_subtract", "Subtract the second number from the first.",
			"Minuend", "Subtrahend",
			func(a, b float64) (any, error) { return a - b, nil }),

		binaryOp("calculator_multiply", "Multiply two numbers and return the result.",
			"First number", "Second number",
			func(a, b float64) (any, error) { return a * b, nil }),

		binaryOp("calculator_divide", "Divide the first number by the second.",
			"Numerator", "Denominator",
			func(a, b float64) (any, error) {
				if b == 0 {
					return nil, fmt.Errorf("division by zero is undefined")
				}
				return a / b, nil
			}),

		binaryOp("calculator_power", "Raise the first number to the power of the second.",
			"Base", "Exponent",
			func(a, b float64) (any, error) { return math.Pow(a, b), nil }),

		{
			Name:    "calculator_factorial",
			Summary: "Calculate the factorial of a non-negative integer.",
			Params: schema.Params{
				{Name: "n", Type: schema.TypeInteger, Required: true,
					Description: "Number to calculate the factorial of (must be non-negative)"},
			},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				n := args["n"].(int64)
				if n < 0 {
					return nil, fmt.Errorf("factorial of a negative number is undefined")
				}
				// 20! is the largest factorial that fits in int64.
				if n > 20 {
					return nil, fmt.Errorf("factorial of %d overflows, max supported is 20", n)
				}
				result := int64(1)
				for i := int64(2); i <= n; i++ {
					result *= i
				}
				return result, nil
			},
		},
	}
}
