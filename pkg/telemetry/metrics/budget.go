package metrics

import "github.com/altmunch/SocialSchedule-sub011/pkg/config"

// BudgetsFromConfig converts the file form of performance budgets.
func BudgetsFromConfig(budgets []config.BudgetConfig) []PerformanceBudget {
	out := make([]PerformanceBudget, 0, len(budgets))
	for _, b := range budgets {
		pb := PerformanceBudget{
			OperationName:      b.Operation,
			MaxDuration:        b.MaxDurationMs,
			ErrorRateThreshold: b.ErrorRateThreshold,
		}
		if b.P95ThresholdMs != nil {
			v := *b.P95ThresholdMs
			pb.P95Threshold = &v
		}
		if b.MaxMemoryBytes != nil {
			v := *b.MaxMemoryBytes
			pb.MaxMemoryUsage = &v
		}
		out = append(out, pb)
	}
	return out
}
