package money_test

import (
	"math"
	"testing"

	"compta/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCents(t *testing.T) {
	c, err := money.ToCents(12.34)
	require.Nil(t, err)
	assert.Equal(t, money.Cents(1234), c)

	// rounds half away from zero
	c, err = money.ToCents(0.125)
	require.Nil(t, err)
	assert.Equal(t, money.Cents(13), c)

	c, err = money.ToCents(-0.125)
	require.Nil(t, err)
	assert.Equal(t, money.Cents(-13), c)

	c, err = money.ToCents(19.99)
	require.Nil(t, err)
	assert.Equal(t, money.Cents(1999), c)

	_, err = money.ToCents(math.NaN())
	assert.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = money.ToCents(math.Inf(1))
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestParseCents(t *testing.T) {
	c, err := money.ParseCents("12.34")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(1234), c)

	c, err = money.ParseCents("7")
	require.Nil(t, err)
	assert.Equal(t, money.Cents(700), c)

	_, err = money.ParseCents("12,34")
	assert.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = money.ParseCents("")
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestString(t *testing.T) {
	assert.Equal(t, "12.34", money.Cents(1234).String())
	assert.Equal(t, "0.05", money.Cents(5).String())
	assert.Equal(t, "0.00", money.Cents(0).String())
	assert.Equal(t, "-0.60", money.Cents(-60).String())
	assert.Equal(t, "10.00", money.Cents(1000).String())
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []money.Cents{34, 33, 33}, money.Split(100, 3))
	assert.Equal(t, []money.Cents{50, 50}, money.Split(100, 2))
	assert.Equal(t, []money.Cents{100}, money.Split(100, 1))
	assert.Nil(t, money.Split(100, 0))

	sum := money.Cents(0)
	for _, s := range money.Split(999, 7) {
		sum += s
	}
	assert.Equal(t, money.Cents(999), sum)
}
