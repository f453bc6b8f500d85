package redemption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusDelivered, false},
		{StatusCancelled, StatusDelivered, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestParseStatus(t *testing.T) {
	got, ok := ParseStatus("Entregue")
	assert.True(t, ok)
	assert.Equal(t, StatusDelivered, got)

	_, ok = ParseStatus("entregue")
	assert.False(t, ok)

	_, ok = ParseStatus("Expirado")
	assert.False(t, ok)
}

func TestNewVoucherCodeFormat(t *testing.T) {
	code := NewVoucherCode()

	assert.True(t, strings.HasPrefix(code, "VCH-"), "code=%s", code)
	assert.Len(t, code, 16)
	assert.Equal(t, strings.ToUpper(code), code)
}

func TestNewVoucherCodeDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := NewVoucherCode()
		if seen[code] {
			t.Fatalf("duplicate voucher code after %d draws: %s", i, code)
		}
		seen[code] = true
	}
}
