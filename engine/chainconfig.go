package engine

import (
	"math/big"

	gethparams "github.com/ethereum/go-ethereum/params"

	"github.com/aurora-is-near/engine-go/engine/params"
)

// chainConfig builds a go-ethereum params.ChainConfig that has every fork
// up to and including hardfork active from genesis, and leaves later forks
// unset. There is no on-chain fork-activation schedule in this engine's
// host model (spec §1/§5: no consensus or block production in scope) — the
// host simply names which ruleset the current deployment runs under.
func chainConfig(chainID uint64, hardfork params.Hardfork) *gethparams.ChainConfig {
	zero := big.NewInt(0)
	cfg := &gethparams.ChainConfig{
		ChainID:             new(big.Int).SetUint64(chainID),
		HomesteadBlock:      zero,
		EIP150Block:         zero,
		EIP155Block:         zero,
		EIP158Block:         zero,
		ByzantiumBlock:      zero,
		ConstantinopleBlock: zero,
		PetersburgBlock:     zero,
		IstanbulBlock:       zero,
		MuirGlacierBlock:    zero,
	}

	at := hardforkRank[hardfork]

	if at >= 1 {
		cfg.BerlinBlock = zero
	}
	if at >= 2 {
		cfg.LondonBlock = zero
		cfg.ArrowGlacierBlock = zero
		cfg.GrayGlacierBlock = zero
		cfg.MergeNetsplitBlock = zero
	}
	genesisTime := uint64(0)
	if at >= 3 {
		cfg.ShanghaiTime = &genesisTime
	}
	if at >= 4 {
		cfg.CancunTime = &genesisTime
	}
	return cfg
}

// hardforkRank orders the named hardforks so callers can ask "is X active
// at or after Y" without re-deriving a go-ethereum Rules value just for a
// single fork-gated flag (e.g. EIP-3860's init-code-size check).
var hardforkRank = map[params.Hardfork]int{
	params.Istanbul: 0,
	params.Berlin:   1,
	params.London:   2,
	params.Shanghai: 3,
	params.Cancun:   4,
}

// isShanghaiOrLater reports whether hardfork activates EIP-3860 (the
// init-code-word-gas surcharge and 49152-byte max-init-code-size cap
// core.IntrinsicGas applies when told isEIP3860 == true).
func isShanghaiOrLater(hardfork params.Hardfork) bool {
	return hardforkRank[hardfork] >= hardforkRank[params.Shanghai]
}
