package ledger

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressChecksum(t *testing.T) {
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		addr, err := ParseAddress(strings.ToLower(v))
		require.NoError(t, err)
		require.Equal(t, v, addr.Hex())
	}
}

func TestParseAddressRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "0x1234", "0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"} {
		_, err := ParseAddress(in)
		require.ErrorIs(t, err, ErrInvalidAddress, "input %q", in)
	}
}

func TestAddressTextRoundTrip(t *testing.T) {
	var a Address
	require.NoError(t, a.UnmarshalText([]byte("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")))
	out, err := a.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", string(out))
	require.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", a.Key())
}

func TestCreateAddressIsDeterministic(t *testing.T) {
	deployer := MustParseAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	require.Equal(t, CreateAddress(deployer, 1), CreateAddress(deployer, 1))
	require.NotEqual(t, CreateAddress(deployer, 0), CreateAddress(deployer, 1))
	require.False(t, CreateAddress(deployer, 0).IsZero())
}

func TestParseEther(t *testing.T) {
	wei, err := ParseEther("0.03")
	require.NoError(t, err)
	require.Equal(t, "30000000000000000", wei.String())

	wei, err = ParseEther("1")
	require.NoError(t, err)
	require.Equal(t, 0, wei.Cmp(Ether))

	_, err = ParseEther("-1")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseEther("0.0000000000000000001")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseWeiAndFormat(t *testing.T) {
	wei, err := ParseWei("1500000000000000000")
	require.NoError(t, err)
	require.Equal(t, "1.5", FormatEther(wei))
	require.Equal(t, "2000", FormatUnits(big.NewInt(200000000000), 8))

	_, err = ParseWei("12abc")
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseWei("-5")
	require.ErrorIs(t, err, ErrInvalidAmount)
}
