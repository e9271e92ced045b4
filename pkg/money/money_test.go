package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "15.99", Format(1599))
	assert.Equal(t, "100.00", Format(10000))
	assert.Equal(t, "0.01", Format(1))
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "-3.50", Format(-350))
}

func TestParse(t *testing.T) {
	cases := map[string]int64{
		"15.99":  1599,
		"100":    10000,
		"84.01":  8401,
		"0.5":    50,
		"999.99": 99999,
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse("1.001")
	assert.Error(t, err)

	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestYuan(t *testing.T) {
	assert.Equal(t, "84.01", Yuan(8401).StringFixed(2))
}
