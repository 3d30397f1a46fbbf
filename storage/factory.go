package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"sample-monitor/models"
	"sample-monitor/utils"
)

// OpenForSample returns the figure store for one sample. The fs driver
// writes to the sample's figure directory, or to <fs_root>/Sample_<name>
// when a root is configured; s3 keys are prefixed with Sample_<name>/.
func OpenForSample(ctx context.Context, cfg utils.OutputConfig, plan models.SamplePlan) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		root := plan.Paths().Figures
		if cfg.FSRoot != "" {
			root = filepath.Join(cfg.FSRoot, plan.SampleDir())
		}
		return NewFSStore(root)
	case DriverS3:
		return NewS3Store(ctx, S3Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Prefix:    plan.SampleDir() + "/",
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
