package types

import "time"

// RecordedPlan is a plan after persistence assigned it an identity.
type RecordedPlan struct {
	TradeID   string    `json:"trade_id"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	TradePlan
}

// AnalysisResponse is what the HTTP and CLI surfaces return for one ticker.
type AnalysisResponse struct {
	Ticker             string         `json:"ticker"`
	TradeTypeRequested TradeScope     `json:"trade_type_requested"`
	Plans              []RecordedPlan `json:"plans"`
	TotalPlans         int            `json:"total_plans"`
	HighestConfidence  int            `json:"highest_confidence"`
	AnalysisTimestamp  time.Time      `json:"analysis_timestamp"`
	Cached             bool           `json:"cached"`
}
