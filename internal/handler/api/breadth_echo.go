package api

import (
	"errors"
	"time"

	"BreadthLab/internal/domain/models"
	domrepo "BreadthLab/internal/domain/repository"
	"BreadthLab/internal/usecase"
	xhttp "BreadthLab/pkg/http"
	xlogger "BreadthLab/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BreadthEchoHandler exposes the computed indicator tables over HTTP.
type BreadthEchoHandler struct {
	logger  *xlogger.Logger
	queries *usecase.MarketQueryUseCase
	panels  domrepo.PanelStore
}

func NewBreadthEchoHandler(logger *xlogger.Logger, queries *usecase.MarketQueryUseCase, panels domrepo.PanelStore) *BreadthEchoHandler {
	return &BreadthEchoHandler{logger: logger, queries: queries, panels: panels}
}

func (h *BreadthEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/breadth", h.Breadth)
	g.GET("/ladders", h.Ladders)
	g.GET("/compression", h.Compression)
	g.GET("/oscillator", h.Oscillator)
	g.GET("/market-stats", h.MarketStats)
	g.GET("/breakouts", h.Breakouts)
	g.GET("/money-flow", h.MoneyFlow)
	e.GET("/healthz", h.Health)
}

// nullable converts a float series for JSON output: NaN becomes null.
func nullable(s []float64) []*float64 {
	if s == nil {
		return nil
	}
	out := make([]*float64, len(s))
	for i, v := range s {
		out[i] = models.NullableFloat(v)
	}
	return out
}

func isoDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

func (h *BreadthEchoHandler) usecaseError(c echo.Context, op string, err error) error {
	if errors.Is(err, usecase.ErrNotReady) {
		return xhttp.AppErrorResponse(c, xhttp.NotReadyError("indicators not computed yet"))
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
}

type breadthResponse struct {
	Series     string     `json:"series"`
	Dates      []string   `json:"dates"`
	PctAbove   []*float64 `json:"pct_above"`
	PctBelow   []*float64 `json:"pct_below"`
	PctNeutral []*float64 `json:"pct_neutral"`
	PctNet     []*float64 `json:"pct_net,omitempty"`
}

func (h *BreadthEchoHandler) Breadth(c echo.Context) error {
	req := &models.BreadthRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetBreadth(c.Request().Context(), usecase.BreadthQueryParams{
		Kind:   models.Kind(req.Kind),
		Window: req.Window,
		Limit:  req.N,
	})
	if err != nil {
		return h.usecaseError(c, "breadth", err)
	}

	return xhttp.SuccessResponse(c, &breadthResponse{
		Series:     res.Series,
		Dates:      isoDates(res.Dates),
		PctAbove:   nullable(res.PctAbove),
		PctBelow:   nullable(res.PctBelow),
		PctNeutral: nullable(res.PctNeutral),
		PctNet:     nullable(res.PctNet),
	})
}

type ladderRungResponse struct {
	Label   string     `json:"label"`
	Windows []int      `json:"windows"`
	Pct     []*float64 `json:"pct"`
}

type ladderResponse struct {
	Kind  string               `json:"kind"`
	Dates []string             `json:"dates"`
	Rungs []ladderRungResponse `json:"rungs"`
}

func (h *BreadthEchoHandler) Ladders(c echo.Context) error {
	req := &models.LadderRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetLadders(c.Request().Context(), usecase.LadderQueryParams{
		Kind:  models.Kind(req.Kind),
		Group: models.Group(req.Group),
		Limit: req.N,
	})
	if err != nil {
		return h.usecaseError(c, "ladders", err)
	}

	out := &ladderResponse{
		Kind:  string(res.Kind),
		Dates: isoDates(res.Dates),
		Rungs: make([]ladderRungResponse, len(res.Rungs)),
	}
	for i, r := range res.Rungs {
		out.Rungs[i] = ladderRungResponse{Label: r.Label, Windows: r.Windows, Pct: nullable(r.Pct)}
	}
	return xhttp.SuccessResponse(c, out)
}

type compressionResponse struct {
	Kind     string                `json:"kind"`
	Dates    []string              `json:"dates"`
	Abs      []*float64            `json:"abs,omitempty"`
	Dir      []*float64            `json:"dir,omitempty"`
	GroupAbs map[string][]*float64 `json:"group_abs"`
	GroupDir map[string][]*float64 `json:"group_dir"`
}

func (h *BreadthEchoHandler) Compression(c echo.Context) error {
	req := &models.CompressionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetCompression(c.Request().Context(), usecase.CompressionQueryParams{
		Kind:   models.Kind(req.Kind),
		Window: req.Window,
		Limit:  req.N,
	})
	if err != nil {
		return h.usecaseError(c, "compression", err)
	}

	out := &compressionResponse{
		Kind:     string(res.Kind),
		Dates:    isoDates(res.Dates),
		Abs:      nullable(res.Abs),
		Dir:      nullable(res.Dir),
		GroupAbs: make(map[string][]*float64, len(res.GroupAbs)),
		GroupDir: make(map[string][]*float64, len(res.GroupDir)),
	}
	for g, s := range res.GroupAbs {
		out.GroupAbs[string(g)] = nullable(s)
	}
	for g, s := range res.GroupDir {
		out.GroupDir[string(g)] = nullable(s)
	}
	return xhttp.SuccessResponse(c, out)
}

type oscillatorResponse struct {
	Mode     string                `json:"mode"`
	Dates    []string              `json:"dates"`
	RangePct map[string][]*float64 `json:"range_pct"`
	Osc      map[string][]*float64 `json:"osc"`
}

func (h *BreadthEchoHandler) Oscillator(c echo.Context) error {
	req := &models.OscillatorRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetOscillator(c.Request().Context(), req.N)
	if err != nil {
		return h.usecaseError(c, "oscillator", err)
	}

	out := &oscillatorResponse{
		Mode:     res.Mode,
		Dates:    isoDates(res.Dates),
		RangePct: make(map[string][]*float64, len(res.RangePct)),
		Osc:      make(map[string][]*float64, len(res.Osc)),
	}
	for k, s := range res.RangePct {
		out.RangePct[string(k)] = nullable(s)
	}
	for k, s := range res.Osc {
		out.Osc[string(k)] = nullable(s)
	}
	return xhttp.SuccessResponse(c, out)
}

type marketStatsResponse struct {
	Dates      []string   `json:"dates"`
	Advancing  []*float64 `json:"advancing"`
	Declining  []*float64 `json:"declining"`
	TRIN       []*float64 `json:"trin"`
	ADCumDiff  []*float64 `json:"ad_cum_diff"`
	McClellan  []*float64 `json:"mcclellan"`
	NetAllTime []*float64 `json:"net_all_time"`
	Net12M     []*float64 `json:"net_12m"`
	Net3M      []*float64 `json:"net_3m"`
	Net1M      []*float64 `json:"net_1m"`
}

func (h *BreadthEchoHandler) MarketStats(c echo.Context) error {
	req := &models.MarketStatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetMarketStats(c.Request().Context(), req.N)
	if err != nil {
		return h.usecaseError(c, "market stats", err)
	}

	return xhttp.SuccessResponse(c, &marketStatsResponse{
		Dates:      isoDates(res.Dates),
		Advancing:  nullable(res.Advancing),
		Declining:  nullable(res.Declining),
		TRIN:       nullable(res.TRIN),
		ADCumDiff:  nullable(res.ADCumDiff),
		McClellan:  nullable(res.McClellan),
		NetAllTime: nullable(res.NetAllTime),
		Net12M:     nullable(res.Net12M),
		Net3M:      nullable(res.Net3M),
		Net1M:      nullable(res.Net1M),
	})
}

type breakoutResponse struct {
	Dates []string `json:"dates"`

	Up   map[string][]*float64 `json:"up"`
	Down map[string][]*float64 `json:"down"`

	TotalBreakouts  []*float64 `json:"total_breakouts"`
	TotalBreakdowns []*float64 `json:"total_breakdowns"`
	MABreakouts     []*float64 `json:"ma_breakouts"`
	MABreakdowns    []*float64 `json:"ma_breakdowns"`

	PctBreakouts  []*float64 `json:"pct_breakouts"`
	PctBreakdowns []*float64 `json:"pct_breakdowns"`
	MAPctImpulse  []*float64 `json:"ma_pct_impulse"`

	Impulse   []*float64 `json:"impulse"`
	MAImpulse []*float64 `json:"ma_impulse"`
	RiskOn    []*float64 `json:"risk_on"`

	ThrustZ    []*float64 `json:"thrust_z"`
	ThrustFlag []*float64 `json:"thrust_flag"`

	UpDownRatioShort []*float64 `json:"up_down_ratio_short"`
	UpDownRatioLong  []*float64 `json:"up_down_ratio_long"`
}

func (h *BreadthEchoHandler) Breakouts(c echo.Context) error {
	req := &models.BreakoutRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetBreakouts(c.Request().Context(), req.N)
	if err != nil {
		return h.usecaseError(c, "breakouts", err)
	}

	out := &breakoutResponse{
		Dates:            isoDates(res.Dates),
		Up:               make(map[string][]*float64, len(res.Up)),
		Down:             make(map[string][]*float64, len(res.Down)),
		TotalBreakouts:   nullable(res.TotalBreakouts),
		TotalBreakdowns:  nullable(res.TotalBreakdowns),
		MABreakouts:      nullable(res.MABreakouts),
		MABreakdowns:     nullable(res.MABreakdowns),
		PctBreakouts:     nullable(res.PctBreakouts),
		PctBreakdowns:    nullable(res.PctBreakdowns),
		MAPctImpulse:     nullable(res.MAPctImpulse),
		Impulse:          nullable(res.Impulse),
		MAImpulse:        nullable(res.MAImpulse),
		RiskOn:           nullable(res.RiskOn),
		ThrustZ:          nullable(res.ThrustZ),
		ThrustFlag:       nullable(res.ThrustFlag),
		UpDownRatioShort: nullable(res.UpDownRatioShort),
		UpDownRatioLong:  nullable(res.UpDownRatioLong),
	}
	for label, s := range res.Up {
		out.Up[label] = nullable(s)
	}
	for label, s := range res.Down {
		out.Down[label] = nullable(s)
	}
	return xhttp.SuccessResponse(c, out)
}

type moneyFlowResponse struct {
	Dates []string `json:"dates"`

	IndexOBV     []*float64 `json:"index_obv"`
	IndexNMF     []*float64 `json:"index_nmf"`
	IndexOBVNorm []*float64 `json:"index_obv_norm"`
	IndexNMFNorm []*float64 `json:"index_nmf_norm"`
	Bullish      []*float64 `json:"bullish"`
	Bearish      []*float64 `json:"bearish"`
	BullStrength []*float64 `json:"bull_strength"`
	BearStrength []*float64 `json:"bear_strength"`

	CompOBVNorm      []*float64 `json:"comp_obv_norm"`
	CompNMFNorm      []*float64 `json:"comp_nmf_norm"`
	CompBullish      []*float64 `json:"comp_bullish"`
	CompBearish      []*float64 `json:"comp_bearish"`
	CompBullStrength []*float64 `json:"comp_bull_strength"`
	CompBearStrength []*float64 `json:"comp_bear_strength"`
}

func (h *BreadthEchoHandler) MoneyFlow(c echo.Context) error {
	req := &models.MoneyFlowRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetMoneyFlow(c.Request().Context(), req.N)
	if err != nil {
		return h.usecaseError(c, "money flow", err)
	}

	return xhttp.SuccessResponse(c, &moneyFlowResponse{
		Dates:            isoDates(res.Dates),
		IndexOBV:         nullable(res.IndexOBV),
		IndexNMF:         nullable(res.IndexNMF),
		IndexOBVNorm:     nullable(res.IndexOBVNorm),
		IndexNMFNorm:     nullable(res.IndexNMFNorm),
		Bullish:          nullable(res.Bullish),
		Bearish:          nullable(res.Bearish),
		BullStrength:     nullable(res.BullStrength),
		BearStrength:     nullable(res.BearStrength),
		CompOBVNorm:      nullable(res.CompOBVNorm),
		CompNMFNorm:      nullable(res.CompNMFNorm),
		CompBullish:      nullable(res.CompBullish),
		CompBearish:      nullable(res.CompBearish),
		CompBullStrength: nullable(res.CompBullStrength),
		CompBearStrength: nullable(res.CompBearStrength),
	})
}

func (h *BreadthEchoHandler) Health(c echo.Context) error {
	if h.panels != nil {
		if err := h.panels.Health(c.Request().Context()); err != nil {
			return xhttp.ServiceUnavailableResponse(c, map[string]string{"clickhouse": err.Error()})
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
