package tools

import (
	"context"
	"fmt"
)

// CalculatorTool evaluates arithmetic expressions with the usual math
// functions and constants.
type CalculatorTool struct{}

func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

func (t *CalculatorTool) Name() string {
	return "calculator"
}

func (t *CalculatorTool) Description() string {
	return "Perform mathematical calculations. Input should be a valid mathematical expression."
}

func (t *CalculatorTool) Invoke(_ context.Context, input string) (string, error) {
	result, err := evaluate(input)
	if err != nil {
		return "", fmt.Errorf("error performing calculation: %v", err)
	}
	return fmt.Sprintf("Result: %g", result), nil
}
