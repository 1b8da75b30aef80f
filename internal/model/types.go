package model

import "time"

type Side string

const (
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
	SideUnknown Side = "UNKNOWN"
)

type Kind string

const (
	KindGovernment Kind = "gov"
	KindInsider    Kind = "insider"
)

type GovernmentTrade struct {
	ID              string    `json:"id"`
	Ticker          string    `json:"ticker"`
	Side            Side      `json:"side"`
	Amount          int64     `json:"amount"`
	Representative  string    `json:"representative"`
	Chamber         string    `json:"chamber,omitempty"`
	TransactionDate time.Time `json:"transaction_date"`
	DisclosureDate  time.Time `json:"disclosure_date"`
	Link            string    `json:"link,omitempty"`
}

type InsiderTrade struct {
	ID              string    `json:"id"`
	Ticker          string    `json:"ticker"`
	Side            Side      `json:"side"`
	Value           int64     `json:"value"`
	Insider         string    `json:"insider"`
	Role            string    `json:"role,omitempty"`
	TransactionDate time.Time `json:"transaction_date"`
	FilingDate      time.Time `json:"filing_date"`
	Link            string    `json:"link,omitempty"`
}

type Contract struct {
	ID          string    `json:"id"`
	Ticker      string    `json:"ticker"`
	AwardDate   time.Time `json:"award_date"`
	Amount      int64     `json:"amount"`
	Agency      string    `json:"agency,omitempty"`
	Description string    `json:"description,omitempty"`
}

type ScoreResult struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Signals carries the pattern detector answers consumed by the government scorer.
type Signals struct {
	Cluster        bool `json:"cluster"`
	ContractTiming bool `json:"contract_timing"`
}

type AlertRecord struct {
	Hash   string    `json:"alert_hash"`
	SentAt time.Time `json:"sent_at"`
}

// Pick is a scored trade of either kind, in the shape the digest renders.
type Pick struct {
	Kind       Kind      `json:"kind"`
	TradeID    string    `json:"trade_id"`
	Ticker     string    `json:"ticker"`
	Side       Side      `json:"side"`
	Actor      string    `json:"actor"`
	Role       string    `json:"role,omitempty"`
	Size       int64     `json:"size"`
	FilingDate time.Time `json:"filing_date"`
	Link       string    `json:"link,omitempty"`
	Score      int       `json:"score"`
	Reasons    []string  `json:"reasons"`
}

func GovernmentPick(t GovernmentTrade, res ScoreResult) Pick {
	return Pick{
		Kind:       KindGovernment,
		TradeID:    t.ID,
		Ticker:     t.Ticker,
		Side:       t.Side,
		Actor:      t.Representative,
		Role:       t.Chamber,
		Size:       t.Amount,
		FilingDate: t.DisclosureDate,
		Link:       t.Link,
		Score:      res.Score,
		Reasons:    res.Reasons,
	}
}

func InsiderPick(t InsiderTrade, res ScoreResult) Pick {
	return Pick{
		Kind:       KindInsider,
		TradeID:    t.ID,
		Ticker:     t.Ticker,
		Side:       t.Side,
		Actor:      t.Insider,
		Role:       t.Role,
		Size:       t.Value,
		FilingDate: t.FilingDate,
		Link:       t.Link,
		Score:      res.Score,
		Reasons:    res.Reasons,
	}
}
