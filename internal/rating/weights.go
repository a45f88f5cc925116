package rating

// Baselines for the HLTV 2.0 style formula, taken from professional
// match analysis. A player sitting exactly on every baseline lands
// near 1.0.
const (
	baselineKPR    = 0.679 // kills per round
	baselineSPR    = 0.317 // survival rate per round
	baselineRMK    = 1.277 // multi-kill round points per round
	survivalWeight = 0.7
	ratingDivisor  = 2.7
)
