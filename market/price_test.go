package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestComparePrices(t *testing.T) {
	testCases := []struct {
		name           string
		a1, a2, b1, b2 int64
		want           int
	}{
		{"Equal", 1, 2, 1, 2, 0},
		{"EqualScaled", 1, 2, 50, 100, 0},
		{"Less", 1, 3, 1, 2, -1},
		{"Greater", 2, 3, 1, 2, 1},
		{"HugeNoOverflow", math.MaxInt64, 1, math.MaxInt64 - 1, 1, 1},
		{"HugeCross", math.MaxInt64, math.MaxInt64 - 1, math.MaxInt64 - 1, math.MaxInt64 - 2, -1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComparePrices(tc.a1, tc.a2, tc.b1, tc.b2))
		})
	}
}

func TestComparePricesAntisymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a1 := rapid.Int64Range(1, math.MaxInt64).Draw(t, "a1").(int64)
		a2 := rapid.Int64Range(1, math.MaxInt64).Draw(t, "a2").(int64)
		b1 := rapid.Int64Range(1, math.MaxInt64).Draw(t, "b1").(int64)
		b2 := rapid.Int64Range(1, math.MaxInt64).Draw(t, "b2").(int64)
		if ComparePrices(a1, a2, b1, b2) != -ComparePrices(b1, b2, a1, a2) {
			t.Fatalf("compare(%d/%d, %d/%d) is not antisymmetric", a1, a2, b1, b2)
		}
	})
}

func TestCrosses(t *testing.T) {
	// taker sells 800 for 200: limit rate 1/4
	// maker offering 4 sell-units per buy-unit crosses, 5 does not
	assert.True(t, Crosses(800, 200, 100, 200))
	assert.True(t, Crosses(800, 200, 200, 800))
	assert.False(t, Crosses(800, 200, 100, 500))

	// exactly at the limit crosses
	assert.True(t, Crosses(100, 100, 100, 100))
}

func TestMulDivTruncates(t *testing.T) {
	assert.EqualValues(t, 100, mulDiv(201, 100, 200))
	assert.EqualValues(t, 0, mulDiv(1, 100, 200))
	assert.EqualValues(t, 400, mulDiv(800, 100, 200))

	// intermediate product exceeds 64 bits
	assert.EqualValues(t, math.MaxInt64, mulDiv(math.MaxInt64, 1000, 1000))
}
