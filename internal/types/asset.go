package types

// Asset identifies a tradable token on a specific blockchain network.
type Asset struct {
	// Address is the token contract address.
	Address string `json:"address" yaml:"address" validate:"required"`
	// Symbol is the human-readable ticker symbol.
	Symbol string `json:"symbol" yaml:"symbol" validate:"required"`
	// Chain is the broad virtual-machine family, e.g. "evm" or "svm".
	Chain string `json:"chain" yaml:"chain" validate:"required"`
	// SpecificChain is the concrete network within the family, e.g. "eth" or "polygon".
	SpecificChain string `json:"specificChain" yaml:"specificChain"`
}
