// Command stockcast forecasts one column of a CSV file and writes a JSON
// report.
//
//	stockcast -csv prices.csv -column Close -horizon 30 -o report.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/sartorproj/stockcast/internal/logging"
	"github.com/sartorproj/stockcast/pipeline"
	"github.com/sartorproj/stockcast/timeseries"
)

type options struct {
	csvPath    string
	column     string
	dateColumn string
	dateFormat string
	configPath string
	output     string
	logLevel   string
	holdout    int

	// overrides, applied when >= 0
	p, d, q, seasonalPeriod, horizon int
}

func main() {
	var opts options
	flag.StringVar(&opts.csvPath, "csv", "", "CSV file with a date column and numeric columns")
	flag.StringVar(&opts.column, "column", "Close", "Column to forecast")
	flag.StringVar(&opts.dateColumn, "date-column", "Date", "Date column")
	flag.StringVar(&opts.dateFormat, "date-format", "2006-01-02", "Date layout")
	flag.StringVar(&opts.configPath, "config", "", "YAML pipeline configuration")
	flag.StringVar(&opts.output, "o", "", "Report path (stdout when empty)")
	flag.StringVar(&opts.logLevel, "log.level", "info", "Log level (debug, info, warn, error or dev)")
	flag.IntVar(&opts.holdout, "holdout", 0, "Hold out the last N observations and report forecast accuracy on them")
	flag.IntVar(&opts.p, "p", -1, "AR order")
	flag.IntVar(&opts.d, "d", -1, "Differencing order")
	flag.IntVar(&opts.q, "q", -1, "MA order")
	flag.IntVar(&opts.seasonalPeriod, "seasonal-period", -1, "Seasonal period")
	flag.IntVar(&opts.horizon, "horizon", -1, "Forecast horizon")
	flag.Parse()

	logger, err := logging.New(opts.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("forecast failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	if opts.csvPath == "" {
		return errors.New("-csv is required")
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	series, err := timeseries.LoadCSV(opts.csvPath, &timeseries.CSVOptions{
		DateColumn:  opts.dateColumn,
		ValueColumn: opts.column,
		DateFormat:  opts.dateFormat,
		Delimiter:   ',',
	})
	if err != nil {
		return err
	}
	logger.Info("series loaded",
		zap.String("file", opts.csvPath),
		zap.Int("observations", series.Len()),
		zap.Float64("min", series.Min()),
		zap.Float64("max", series.Max()),
	)

	train, holdout := series, []float64(nil)
	if opts.holdout > 0 {
		n := series.Len()
		if opts.holdout >= n {
			return fmt.Errorf("holdout %d leaves no training data out of %d observations", opts.holdout, n)
		}
		if train, err = series.Slice(0, n-opts.holdout); err != nil {
			return err
		}
		holdout = series.Values()[n-opts.holdout:]
		cfg.Horizon = opts.holdout
	}

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}
	res, err := p.Run(ctx, train)
	if err != nil {
		return err
	}

	rep, err := pipeline.NewReport(res)
	if err != nil {
		return err
	}

	out := struct {
		*pipeline.Report
		Accuracy *accuracy `json:"accuracy,omitempty"`
	}{Report: rep}
	if holdout != nil {
		acc := evaluate(holdout, res.Forecast.Point)
		out.Accuracy = &acc
		logger.Info("holdout accuracy",
			zap.Float64("rmse", acc.RMSE),
			zap.Float64("mae", acc.MAE),
			zap.Float64("mape", acc.MAPE),
		)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err = fmt.Println(string(data))
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	logger.Info("report written", zap.String("path", opts.output), zap.String("run_id", rep.RunID))
	return nil
}

func loadConfig(opts options) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}

	overrides := []struct {
		dst *int
		v   int
	}{
		{&cfg.P, opts.p}, {&cfg.D, opts.d}, {&cfg.Q, opts.q},
		{&cfg.SeasonalPeriod, opts.seasonalPeriod}, {&cfg.Horizon, opts.horizon},
	}
	for _, o := range overrides {
		if o.v >= 0 {
			*o.dst = o.v
		}
	}
	return cfg, cfg.Validate()
}

type accuracy struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
}

// evaluate calculates forecast accuracy metrics.
func evaluate(actual, predicted []float64) accuracy {
	var acc accuracy
	n := min(len(actual), len(predicted))
	if n == 0 {
		return acc
	}
	for i := 0; i < n; i++ {
		d := actual[i] - predicted[i]
		acc.RMSE += d * d
		acc.MAE += math.Abs(d)
		if actual[i] != 0 {
			acc.MAPE += math.Abs(d) / math.Abs(actual[i]) * 100
		}
	}
	acc.RMSE = math.Sqrt(acc.RMSE / float64(n))
	acc.MAE /= float64(n)
	acc.MAPE /= float64(n)
	return acc
}
