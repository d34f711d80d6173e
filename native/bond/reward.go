package bond

import "math/big"

// RewardBpsDenominator is the fixed basis-point denominator applied to the
// qualifying amount.
const RewardBpsDenominator = 10_000

// ComputeReward derives the reward owed for a qualifying amount under the
// supplied campaign, capped by the remaining budget. Division truncates
// toward zero. The function never mutates its inputs and returns zero for a
// nil or non-positive qualifying amount.
func ComputeReward(cfg *BondConfig, qualifying *big.Int) *big.Int {
	if cfg == nil || qualifying == nil || qualifying.Sign() <= 0 {
		return big.NewInt(0)
	}
	reward := new(big.Int).Mul(qualifying, new(big.Int).SetUint64(uint64(cfg.RewardRateBps)))
	reward.Quo(reward, big.NewInt(RewardBpsDenominator))
	if remaining := cfg.Remaining(); reward.Cmp(remaining) > 0 {
		return remaining
	}
	return reward
}
