package models

// Requests for the indicator HTTP endpoints. Defined in domain for reuse.

type BreadthRequest struct {
	Kind   string `query:"kind" json:"kind" default:"MA" validate:"oneof=MA VWMA"`
	Window int    `query:"window" json:"window" validate:"required,gte=1,lte=500"`
	N      int    `query:"n" json:"n" default:"500" validate:"gte=1,lte=5000"`
}

type LadderRequest struct {
	Kind  string `query:"kind" json:"kind" default:"MA" validate:"oneof=MA VWMA"`
	Group string `query:"group" json:"group" validate:"omitempty,oneof=short medium long"`
	N     int    `query:"n" json:"n" default:"500" validate:"gte=1,lte=5000"`
}

type CompressionRequest struct {
	Kind   string `query:"kind" json:"kind" default:"MA" validate:"oneof=MA VWMA"`
	Window int    `query:"window" json:"window" validate:"omitempty,gte=1,lte=500"`
	N      int    `query:"n" json:"n" default:"500" validate:"gte=1,lte=5000"`
}

type BreakoutRequest struct {
	N int `query:"n" json:"n" default:"500" validate:"gte=1,lte=5000"`
}

type MoneyFlowRequest struct {
	N int `query:"n" json:"n" default:"500" validate:"gte=1,lte=5000"`
}

type OscillatorRequest struct {
	N int `query:"n" json:"n" default:"500" validate:"gte=1,lte=5000"`
}

type MarketStatsRequest struct {
	N int `query:"n" json:"n" default:"500" validate:"gte=1,lte=5000"`
}
