package server

import (
	"time"

	"github.com/sartorproj/stockcast/pipeline"
)

type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ForecastRequest is the body of POST /api/v1/forecast. Unset overrides
// keep the server's configuration.
type ForecastRequest struct {
	Name   string     `json:"name"`
	Points []Point    `json:"points" binding:"required,min=2"`
	Config *Overrides `json:"config,omitempty"`
}

type Overrides struct {
	P                   *int     `json:"p,omitempty"`
	D                   *int     `json:"d,omitempty"`
	Q                   *int     `json:"q,omitempty"`
	SeasonalP           *int     `json:"seasonal_p,omitempty"`
	SeasonalD           *int     `json:"seasonal_d,omitempty"`
	SeasonalQ           *int     `json:"seasonal_q,omitempty"`
	SeasonalPeriod      *int     `json:"seasonal_period,omitempty"`
	MirrorSeasonalOrder *bool    `json:"mirror_seasonal_order,omitempty"`
	DecompositionPeriod *int     `json:"decomposition_period,omitempty"`
	Horizon             *int     `json:"horizon,omitempty"`
	ConfidenceLevel     *float64 `json:"confidence_level,omitempty"`
}

// apply returns base with the set fields replaced.
func (o *Overrides) apply(base pipeline.Config) pipeline.Config {
	if o == nil {
		return base
	}
	cfg := base
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&cfg.P, o.P)
	setInt(&cfg.D, o.D)
	setInt(&cfg.Q, o.Q)
	setInt(&cfg.SeasonalP, o.SeasonalP)
	setInt(&cfg.SeasonalD, o.SeasonalD)
	setInt(&cfg.SeasonalQ, o.SeasonalQ)
	setInt(&cfg.SeasonalPeriod, o.SeasonalPeriod)
	setInt(&cfg.DecompositionPeriod, o.DecompositionPeriod)
	setInt(&cfg.Horizon, o.Horizon)
	if o.MirrorSeasonalOrder != nil {
		cfg.MirrorSeasonalOrder = *o.MirrorSeasonalOrder
	}
	if o.ConfidenceLevel != nil {
		cfg.ConfidenceLevel = *o.ConfidenceLevel
	}
	return cfg
}

type ErrorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	Param    string `json:"param,omitempty"`
	Observed int    `json:"observed,omitempty"`
	Required int    `json:"required,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
