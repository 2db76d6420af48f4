package lnwire

// DefaultInit builds the Init message this library emits: two zero
// globalfeature bytes, five zero feature bytes, no remote address, and the
// single-element networks list naming Bitcoin mainnet. Per spec §6 this is
// "minimal feature negotiation by design" — callers who need to advertise
// more must construct their own Init and bypass PerformInit.
func DefaultInit() Init {
	return Init{
		GlobalFeatures: make([]byte, 2),
		Features:       make([]byte, 5),
		Networks:       [][ChainHashSize]byte{BitcoinMainnetChainHash},
	}
}
