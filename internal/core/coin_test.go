package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoin(t *testing.T) {
	c, err := ParseCoin("12345uatom")
	require.NoError(t, err)
	assert.Equal(t, "uatom", c.Denom)
	assert.Equal(t, int64(12345), c.Amount.Int64())

	// base units routinely exceed int64
	c, err = ParseCoin("123456789012345678901234567890aevmos")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", c.Amount.String())
	assert.Equal(t, "123456789012345678901234567890aevmos", c.String())

	c, err = ParseCoin("500ibc/27394FB092D2ECCD56123C74F36E4C1F")
	require.NoError(t, err)
	assert.Equal(t, "ibc/27394FB092D2ECCD56123C74F36E4C1F", c.Denom)

	for _, s := range []string{"", "uatom", "12.5uatom", "-5uatom", "5 uatom"} {
		_, err := ParseCoin(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestParseCoins(t *testing.T) {
	coins := ParseCoins("100uatom,garbage,200uosmo,")
	require.Len(t, coins, 2)
	assert.Equal(t, "100uatom", coins[0].String())
	assert.Equal(t, "200uosmo", coins[1].String())

	assert.Empty(t, ParseCoins(""))
}

func TestSumCoins(t *testing.T) {
	coins := SumCoins([]Coin{
		{Denom: "uatom", Amount: big.NewInt(100)},
		{Denom: "uosmo", Amount: big.NewInt(7)},
		{Denom: "uatom", Amount: big.NewInt(50)},
		{Denom: "uatom", Amount: nil},
	})
	require.Len(t, coins, 2)

	// first-seen denomination order is preserved
	assert.Equal(t, "150uatom", coins[0].String())
	assert.Equal(t, "7uosmo", coins[1].String())
}

func TestSumCoins_DoesNotMutateInput(t *testing.T) {
	in := []Coin{
		{Denom: "uatom", Amount: big.NewInt(100)},
		{Denom: "uatom", Amount: big.NewInt(50)},
	}
	_ = SumCoins(in)
	assert.Equal(t, "100", in[0].Amount.String())
	assert.Equal(t, "50", in[1].Amount.String())
}

func TestFormatCoins(t *testing.T) {
	assert.Equal(t, "", FormatCoins(nil))
	assert.Equal(t, "150uatom,7uosmo", FormatCoins([]Coin{
		{Denom: "uatom", Amount: big.NewInt(150)},
		{Denom: "uosmo", Amount: big.NewInt(7)},
	}))
}
