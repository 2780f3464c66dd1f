package simulation

import (
	"context"
	"fmt"
	"math"

	"x402-lab/internal/domain"
)

// Sensitivity sweeps one parameter and records headline figures per scheme.
// Points are ordered by value, then by scheme. A nil schemes slice means all schemes.
func Sensitivity(ctx context.Context, r *Runner, base domain.SimulationConfig, param string, values []float64, schemes []domain.Scheme) ([]domain.SensitivityPoint, error) {
	if len(schemes) == 0 {
		schemes = domain.AllSchemes()
	}

	points := make([]domain.SensitivityPoint, 0, len(values)*len(schemes))
	for _, v := range values {
		cfg, err := base.WithParam(param, v)
		if err != nil {
			return nil, err
		}

		for _, s := range schemes {
			res, err := r.Run(ctx, cfg, s)
			if err != nil {
				return nil, fmt.Errorf("%s=%v %s: %w", param, v, s, err)
			}
			points = append(points, domain.SensitivityPoint{
				Param:        param,
				Value:        v,
				Scheme:       s,
				RevenueUSD:   res.TotalRevenueUSD,
				AvgLatencyMs: res.AvgLatencyMs,
				SuccessRate:  res.SuccessRate(),
				ChurnRate:    res.ChurnRate(),
			})
		}
	}
	return points, nil
}

// TrustSpeedupRow compares sync and async at one trust threshold.
type TrustSpeedupRow struct {
	Threshold int
	Sync      *domain.SimulationResult
	Async     *domain.SimulationResult
	Speedup   float64 // sync total time / async total time
}

// TrustSpeedup runs sync and async at each trust threshold.
func TrustSpeedup(ctx context.Context, r *Runner, base domain.SimulationConfig, thresholds []int) ([]TrustSpeedupRow, error) {
	rows := make([]TrustSpeedupRow, 0, len(thresholds))
	for _, th := range thresholds {
		cfg := base
		cfg.TrustThreshold = th

		syncRes, err := r.Run(ctx, cfg, domain.SchemeSync)
		if err != nil {
			return nil, fmt.Errorf("threshold %d sync: %w", th, err)
		}
		asyncRes, err := r.Run(ctx, cfg, domain.SchemeAsync)
		if err != nil {
			return nil, fmt.Errorf("threshold %d async: %w", th, err)
		}

		rows = append(rows, TrustSpeedupRow{
			Threshold: th,
			Sync:      syncRes,
			Async:     asyncRes,
			Speedup:   syncRes.TotalTimeMs / math.Max(1, asyncRes.TotalTimeMs),
		})
	}
	return rows, nil
}
