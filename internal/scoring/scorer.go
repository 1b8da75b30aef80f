// Package scoring assigns conviction scores to normalized trades.
//
// Scoring is a pure function of the trade, the pattern signals, the
// configured magnitudes and the evaluation time passed in by the caller.
package scoring

import (
	"strings"
	"time"

	"smartmoney/internal/config"
	"smartmoney/internal/model"
)

const (
	MinScore = 0
	MaxScore = 100

	LargeGovernmentAmount = 50_000
	LargeInsiderValue     = 100_000
	RecencyDays           = 5
)

const (
	ReasonGovernmentBuy    = "Government buy"
	ReasonLargeAmount      = "Large disclosed amount"
	ReasonRecentDisclosure = "Recent disclosure"
	ReasonCluster          = "Cluster buying"
	ReasonContractTiming   = "Contract timing"

	ReasonInsiderBuy        = "Insider buy"
	ReasonExecutiveRole     = "Executive role"
	ReasonLargeInsider      = "Large insider purchase"
	ReasonRecentTransaction = "Recent transaction"
)

var executiveRoles = []string{"ceo", "cfo", "cto", "president"}

type Scorer struct {
	w config.ScoringConfig
}

func NewScorer(w config.ScoringConfig) *Scorer {
	return &Scorer{w: w}
}

func (s *Scorer) Government(t model.GovernmentTrade, sig model.Signals, now time.Time) model.ScoreResult {
	var acc accumulator
	if t.Side == model.SideBuy {
		acc.add(s.w.BuyBase, ReasonGovernmentBuy)
	} else {
		acc.add(s.w.SellPenalty, "")
	}
	if t.Amount > LargeGovernmentAmount {
		acc.add(s.w.LargeTradeBonus, ReasonLargeAmount)
	}
	if elapsedDays(t.DisclosureDate, now) <= RecencyDays {
		acc.add(s.w.RecencyBonus, ReasonRecentDisclosure)
	}
	if sig.Cluster {
		acc.add(s.w.ClusterBonus, ReasonCluster)
	}
	if sig.ContractTiming {
		acc.add(s.w.ContractBonus, ReasonContractTiming)
	}
	return acc.result()
}

func (s *Scorer) Insider(t model.InsiderTrade, now time.Time) model.ScoreResult {
	var acc accumulator
	if t.Side == model.SideBuy {
		acc.add(s.w.InsiderBuyBonus, ReasonInsiderBuy)
	} else {
		acc.add(s.w.SellPenalty, "")
	}
	if IsExecutive(t.Role) {
		acc.add(s.w.ExecRoleBonus, ReasonExecutiveRole)
	}
	if t.Value > LargeInsiderValue {
		acc.add(s.w.LargeTradeBonus, ReasonLargeInsider)
	}
	if elapsedDays(t.TransactionDate, now) <= RecencyDays {
		acc.add(s.w.RecencyBonus, ReasonRecentTransaction)
	}
	return acc.result()
}

// IsExecutive matches ceo/cfo/cto/president anywhere in the role, ignoring case.
func IsExecutive(role string) bool {
	r := strings.ToLower(role)
	if r == "" {
		return false
	}
	for _, k := range executiveRoles {
		if strings.Contains(r, k) {
			return true
		}
	}
	return false
}

type accumulator struct {
	score   int
	reasons []string
}

func (a *accumulator) add(points int, reason string) {
	a.score += points
	if reason != "" {
		a.reasons = append(a.reasons, reason)
	}
}

func (a *accumulator) result() model.ScoreResult {
	reasons := a.reasons
	if reasons == nil {
		reasons = []string{}
	}
	return model.ScoreResult{Score: Clamp(a.score), Reasons: reasons}
}

func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// elapsedDays counts whole days from t to now, floored, so future dates are negative.
func elapsedDays(t, now time.Time) int {
	d := now.Sub(t)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}
