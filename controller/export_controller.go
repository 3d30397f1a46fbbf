package controller

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"

	"sample-monitor/models"
	"sample-monitor/storage"
	"sample-monitor/utils"
	"sample-monitor/views"
)

// FolderCleanData holds the exported clean tables.
const FolderCleanData = "00_clean_data"

// ExportController writes a sample's clean dataset as CSV next to its
// figures: a "timestamp" column followed by every roster column with its
// unit.
type ExportController struct {
	store storage.Store
}

func NewExportController(store storage.Store) *ExportController {
	return &ExportController{store: store}
}

// Key returns the storage key of a sample's clean table.
func (ec *ExportController) Key(sample string) string {
	return path.Join(FolderCleanData, sample+"_clean_data.csv")
}

// Export stores ds and returns the number of data rows written.
func (ec *ExportController) Export(ctx context.Context, plan models.SamplePlan, ds *models.Dataset) (uint64, error) {
	var buf bytes.Buffer
	rows, err := views.WriteDataset(&buf, ds)
	if err != nil {
		return 0, fmt.Errorf("export %s: %w", plan.Name, err)
	}
	key := ec.Key(plan.Name)
	info, err := ec.store.Put(ctx, key, &buf, storage.PutOptions{
		ContentType: "text/csv",
		Metadata: map[string]string{
			"sample": plan.Name,
			"rows":   strconv.FormatUint(rows, 10),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("export %s: %w", plan.Name, err)
	}
	utils.L().Info("export: %s: %d rows to %s (%d bytes)", plan.Name, rows, key, info.Size)
	return rows, nil
}
