// Package report aggregates execution results and rule findings into the
// final run report and renders it as JSON or human-readable text.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/harrison/docval/internal/models"
)

// Build assembles a report from per-example outcomes and extraction
// warnings. Outcomes must already be in extractor discovery order; Build
// preserves it. The returned report is complete: callers render it, they
// do not extend it.
func Build(outcomes []models.ExampleOutcome, warnings []models.Warning) *models.Report {
	summary := models.Summary{
		TotalExamples:        len(outcomes),
		FailuresByKind:       map[models.ErrorKind]int{},
		ViolationsBySeverity: map[models.Severity]int{},
		ExtractionWarnings:   len(warnings),
	}

	for _, out := range outcomes {
		switch out.Result.Status {
		case models.StatusSuccess:
			summary.Successes++
		case models.StatusTimedOut:
			summary.TimedOut++
			summary.FailuresByKind[models.ErrKindTimedOut]++
		default:
			summary.Failures++
			kind := out.Result.ErrorKind
			if kind == "" {
				kind = models.ErrKindOtherRuntime
			}
			summary.FailuresByKind[kind]++
		}

		for _, v := range out.Violations {
			summary.ViolationsBySeverity[v.Severity]++
		}
	}

	if summary.TotalExamples > 0 {
		summary.SuccessRate = float64(summary.Successes) / float64(summary.TotalExamples)
	}

	return &models.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		Results:     outcomes,
		Warnings:    warnings,
	}
}
