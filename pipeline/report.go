package pipeline

import (
	"math"
	"time"
)

// Report is a JSON-ready view of a Result. Undefined decomposition values
// are encoded as null.
type Report struct {
	RunID         string              `json:"run_id"`
	Series        string              `json:"series,omitempty"`
	Stationarity  StationarityReport  `json:"stationarity"`
	Decomposition DecompositionReport `json:"decomposition"`
	Correlogram   *CorrelogramReport  `json:"correlogram,omitempty"`
	Model         ModelReport         `json:"model"`
	Forecast      []ForecastPoint     `json:"forecast"`
	ElapsedMS     int64               `json:"elapsed_ms"`
}

type StationarityReport struct {
	Statistic      float64            `json:"statistic"`
	PValue         float64            `json:"p_value"`
	IsStationary   bool               `json:"is_stationary"`
	Lags           int                `json:"lags"`
	CriticalValues map[string]float64 `json:"critical_values"`
}

type DecompositionReport struct {
	Period     int         `json:"period"`
	Timestamps []time.Time `json:"timestamps"`
	Trend      []*float64  `json:"trend"`
	Seasonal   []*float64  `json:"seasonal"`
	Residual   []*float64  `json:"residual"`
}

type CorrelogramReport struct {
	ACF  []float64 `json:"acf"`
	PACF []float64 `json:"pacf"`
}

type ModelReport struct {
	Order         string    `json:"order"`
	AR            []float64 `json:"ar"`
	MA            []float64 `json:"ma"`
	Mean          float64   `json:"mean"`
	Sigma2        float64   `json:"sigma2"`
	LogLikelihood float64   `json:"log_likelihood"`
	AIC           float64   `json:"aic"`
	BIC           float64   `json:"bic"`
	Converged     bool      `json:"converged"`
	Status        string    `json:"status"`
	Iterations    int       `json:"iterations"`
	Summary       string    `json:"summary"`
}

type ForecastPoint struct {
	Time   time.Time `json:"time"`
	Value  float64   `json:"value"`
	StdErr float64   `json:"std_err"`
	Lower  float64   `json:"lower"`
	Upper  float64   `json:"upper"`
}

// NewReport flattens r for serialization.
func NewReport(r *Result) (*Report, error) {
	rep := &Report{
		RunID:     r.RunID,
		Series:    r.SeriesName,
		ElapsedMS: r.Elapsed.Milliseconds(),
	}

	if s := r.Stationarity; s != nil {
		rep.Stationarity = StationarityReport{
			Statistic:      s.Statistic,
			PValue:         s.PValue,
			IsStationary:   s.IsStationary,
			Lags:           s.Lags,
			CriticalValues: s.CriticalValues,
		}
	}

	if d := r.Decomposition; d != nil {
		rep.Decomposition = DecompositionReport{
			Period:     d.Period,
			Timestamps: d.Timestamps,
			Trend:      nullable(d.Trend),
			Seasonal:   nullable(d.Seasonal),
			Residual:   nullable(d.Residual),
		}
	}

	if c := r.Correlogram; c != nil {
		rep.Correlogram = &CorrelogramReport{ACF: c.ACF, PACF: c.PACF}
	}

	if m := r.Model; m != nil {
		rep.Model = ModelReport{
			Order:         m.Order().String(),
			AR:            m.ARCoeffs(),
			MA:            m.MACoeffs(),
			Mean:          m.Mean(),
			Sigma2:        m.Sigma2(),
			LogLikelihood: m.LogLikelihood(),
			AIC:           m.AIC(),
			BIC:           m.BIC(),
			Converged:     m.Converged(),
			Status:        m.Status(),
			Iterations:    m.Iterations(),
			Summary:       m.Summary().String(),
		}
	}

	if fc := r.Forecast; fc != nil {
		lower, upper, err := fc.Interval(r.ConfidenceLevel)
		if err != nil {
			return nil, err
		}
		rep.Forecast = make([]ForecastPoint, fc.Len())
		for i := range rep.Forecast {
			rep.Forecast[i] = ForecastPoint{
				Time:   fc.Timestamps[i],
				Value:  fc.Point[i],
				StdErr: fc.StdErr[i],
				Lower:  lower[i],
				Upper:  upper[i],
			}
		}
	}
	return rep, nil
}

func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = &values[i]
	}
	return out
}
