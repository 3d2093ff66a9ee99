package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityString(t *testing.T) {
	tests := []struct {
		name string
		qty  Quantity
		want string
	}{
		{"zero", 0, "0.0000"},
		{"whole", NewQuantityFromFloat64(50), "50.0000"},
		{"fractional", NewQuantityFromFloat64(12.5), "12.5000"},
		{"four decimals", Quantity(1_0001), "1.0001"},
		{"negative", NewQuantityFromFloat64(-3.25), "-3.2500"},
		{"sub-unit", Quantity(50), "0.0050"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.qty.String())
		})
	}
}

func TestQuantityUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Quantity
	}{
		{"number", `12.5`, Quantity(12_5000)},
		{"integer", `100`, Quantity(100_0000)},
		{"string", `"12.5"`, Quantity(12_5000)},
		{"negative", `-0.25`, Quantity(-2500)},
		{"null", `null`, 0},
		{"truncates extra digits", `1.00009`, Quantity(1_0000)},
		{"exponent", `1e2`, Quantity(100_0000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.input), &q))
			assert.Equal(t, tt.want, q)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		var q Quantity
		assert.Error(t, json.Unmarshal([]byte(`"abc"`), &q))
	})
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	orig := NewQuantityFromFloat64(42.1234)

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.Equal(t, "42.1234", string(data))

	var parsed Quantity
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, orig, parsed)
}

func TestQuantityArithmeticHelpers(t *testing.T) {
	q := NewQuantityFromFloat64(2.5)

	assert.True(t, q.IsPositive())
	assert.False(t, q.IsNegative())
	assert.Equal(t, NewQuantityFromFloat64(-2.5), q.Neg())
	assert.Equal(t, q, q.Neg().Abs())
	assert.InDelta(t, 2.5, q.Float64(), 1e-9)
	assert.Equal(t, "2.5", q.Decimal().String())
}

func TestMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("1234.5678")
	require.NoError(t, err)
	assert.Equal(t, "1234.5678", m.String())

	_, err = NewMoneyFromString("not-a-number")
	assert.Error(t, err)
}
