// Package dataset reads and writes evaluation data points laid out as
// <dataset>/<split>/<id>/<file>.
package dataset

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

// DataPoint addresses one receipt in a dataset split.
type DataPoint struct {
	Dataset string
	Split   string
	ID      string
}

func (d DataPoint) String() string {
	return path.Join(d.Dataset, d.Split, d.ID)
}

// Store is the storage backend holding the dataset files.
type Store interface {
	// List returns the data points of a split ordered by ID.
	List(ctx context.Context, dataset, split string) ([]DataPoint, error)
	// Files returns the file names stored for a data point.
	Files(ctx context.Context, dp DataPoint) ([]string, error)
	// Load reads a file. A missing file yields an error wrapping common.ErrNotFound.
	Load(ctx context.Context, dp DataPoint, name string) ([]byte, error)
	Save(ctx context.Context, dp DataPoint, name string, data []byte) error
}

// ImageName returns the name of the data point's image.<ext> file.
func ImageName(ctx context.Context, s Store, dp DataPoint) (string, error) {
	names, err := s.Files(ctx, dp)
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if strings.HasPrefix(name, constants.ImageFileStem+".") && constants.IsImageFile(name) {
			return name, nil
		}
	}
	return "", common.NewAppError(common.CodeDataset, fmt.Sprintf("no image for %s", dp), common.ErrNotFound)
}

func notFound(dp DataPoint, name string, cause error) error {
	return common.NewAppError(common.CodeDataset, fmt.Sprintf("%s/%s", dp, name), fmt.Errorf("%w: %v", common.ErrNotFound, cause))
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return common.NewAppError(common.CodeDataset, fmt.Sprintf("invalid file name %q", name), common.ErrInvalidInput)
	}
	return nil
}

// OpenStore builds the backend selected by dataset.backend.
func OpenStore(ctx context.Context, cfg common.DatasetConfig, s3cfg common.S3Config) (Store, error) {
	switch cfg.Backend {
	case "", "fs":
		return NewFSStore(cfg.Root), nil
	case "s3":
		s, err := NewS3Store(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown dataset backend %q", cfg.Backend), common.ErrInvalidInput)
	}
}
