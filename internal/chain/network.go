package chain

import "strings"

// Network selects production or test ledgers.
type Network string

// Known networks.
const (
	Mainnet Network = "mainnet"
	Fuji    Network = "fuji"
)

// String returns the network name.
func (n Network) String() string {
	return string(n)
}

// IsValid returns true if the network is known.
func (n Network) IsValid() bool {
	return n == Mainnet || n == Fuji
}

// IsTest reports whether the network is a test network.
func (n Network) IsTest() bool {
	return n == Fuji
}

// NetworkID returns the numeric network id used in transaction encoding.
func (n Network) NetworkID() uint32 {
	if n == Fuji {
		return 5
	}
	return 1
}

// HRP returns the bech32 human readable part for addresses on the network.
func (n Network) HRP() string {
	if n == Fuji {
		return "fuji"
	}
	return "avax"
}

// ParseNetwork parses a network name. "testnet" and "test" map to Fuji.
func ParseNetwork(s string) (Network, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet", "main", "production":
		return Mainnet, true
	case "fuji", "testnet", "test":
		return Fuji, true
	default:
		return "", false
	}
}

// Networks returns all known network names.
func Networks() []Network {
	return []Network{Mainnet, Fuji}
}
