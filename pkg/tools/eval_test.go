package tools

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10 - 4 - 3", 3},
		{"2^10", 1024},
		{"2^-1", 0.5},
		{"10 % 3", 1},
		{"-5 + 2", -3},
		{"--4", 4},
		{"sqrt(16)", 4},
		{"abs(-7.5)", 7.5},
		{"round(2.6)", 3},
		{"floor(2.9)", 2},
		{"ceil(2.1)", 3},
		{"pow(2, 8)", 256},
		{"min(3, 4)", 3},
		{"max(3, 4)", 4},
		{"log10(1000)", 3},
		{"2 * pi", 2 * math.Pi},
		{"exp(0)", 1},
		{"sqrt(3^2 + 4^2)", 5},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		expr    string
		message string
	}{
		{"1/0", "division by zero"},
		{"10 % 0", "division by zero"},
		{"2 +", "unexpected end of expression"},
		{"(2+3", "missing closing parenthesis"},
		{"pow(2)", "pow expects two arguments"},
		{"foo(3)", `unknown function "foo"`},
		{"bar", `unknown identifier "bar"`},
		{"2 $ 3", "unexpected"},
		{"2 3", "unexpected"},
		{"log(0)", "not a finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := evaluate(tt.expr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCalculatorTool_Invoke(t *testing.T) {
	tool := NewCalculatorTool()

	out, err := tool.Invoke(context.Background(), "25 * 4")
	require.NoError(t, err)
	assert.Equal(t, "Result: 100", out)

	_, err = tool.Invoke(context.Background(), "1/0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error performing calculation")
}
