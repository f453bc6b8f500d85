package points

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		total int64
		want  Tier
	}{
		{0, TierBronze},
		{1, TierBronze},
		{499, TierBronze},
		{500, TierPrata},
		{501, TierPrata},
		{999, TierPrata},
		{1000, TierOuro},
		{1001, TierOuro},
		{250000, TierOuro},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, TierFor(c.total), "total=%d", c.total)
	}
}

func TestTierForMonotonic(t *testing.T) {
	prev := 0
	for total := int64(0); total <= 1500; total++ {
		r := rank(TierFor(total))
		if r < prev {
			t.Fatalf("tier rank decreased at total=%d", total)
		}
		prev = r
	}
}

func TestMeets(t *testing.T) {
	assert.True(t, Meets(TierOuro, TierBronze))
	assert.True(t, Meets(TierOuro, TierPrata))
	assert.True(t, Meets(TierOuro, TierOuro))
	assert.True(t, Meets(TierPrata, TierPrata))
	assert.True(t, Meets(TierPrata, TierBronze))
	assert.True(t, Meets(TierBronze, TierBronze))

	assert.False(t, Meets(TierBronze, TierPrata))
	assert.False(t, Meets(TierBronze, TierOuro))
	assert.False(t, Meets(TierPrata, TierOuro))
}

func TestParseTier(t *testing.T) {
	got, ok := ParseTier("Prata")
	assert.True(t, ok)
	assert.Equal(t, TierPrata, got)

	_, ok = ParseTier("prata")
	assert.False(t, ok)

	_, ok = ParseTier("Platina")
	assert.False(t, ok)
}
