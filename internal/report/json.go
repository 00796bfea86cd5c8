package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harrison/docval/internal/models"
)

// WriteJSON serializes the report with stable field and key ordering, so
// two reports over identical input differ only in run_id and
// generated_at. Map keys are emitted sorted by encoding/json.
func WriteJSON(w io.Writer, r *models.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
