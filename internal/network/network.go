package network

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/congo-pay/fundme/internal/ledger"
)

const (
	// MockDecimals is the precision of the development price feed.
	MockDecimals = 8
	// HardhatChainID is the chain id shared by the development networks.
	HardhatChainID int64 = 31337
)

// MockInitialAnswer is 2000 USD per ether at MockDecimals.
var MockInitialAnswer = big.NewInt(200000000000)

// Network describes a chain the service can be deployed against.
type Network struct {
	Name            string
	ChainID         int64
	EthUsdPriceFeed ledger.Address
	Development     bool
}

var known = []Network{
	{Name: "sepolia", ChainID: 11155111, EthUsdPriceFeed: ledger.MustParseAddress("0x694AA1769357215DE4FAC081bf1f309aDC325306")},
	{Name: "amoy", ChainID: 80002, EthUsdPriceFeed: ledger.MustParseAddress("0xF0d50568e3A7e8259E16663972b11910F89BD8e7")},
	{Name: "hardhat", ChainID: HardhatChainID, Development: true},
	{Name: "localhost", ChainID: HardhatChainID, Development: true},
}

// Lookup resolves a network by name (case-insensitive).
func Lookup(name string) (Network, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, net := range known {
		if net.Name == n {
			return net, nil
		}
	}
	return Network{}, fmt.Errorf("unknown network %q", name)
}

// ByChainID resolves a network by chain id. Development chains share an id;
// the first match (hardhat) wins.
func ByChainID(id int64) (Network, error) {
	for _, net := range known {
		if net.ChainID == id {
			return net, nil
		}
	}
	return Network{}, fmt.Errorf("unknown chain id %d", id)
}

// IsDevelopment reports whether name is one of the local development chains.
func IsDevelopment(name string) bool {
	net, err := Lookup(name)
	return err == nil && net.Development
}
