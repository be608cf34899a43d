package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

// FSStore keeps datasets under a local root directory.
type FSStore struct {
	Root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{Root: root}
}

func (s *FSStore) dir(dp DataPoint) string {
	return filepath.Join(s.Root, dp.Dataset, dp.Split, dp.ID)
}

func (s *FSStore) List(ctx context.Context, dataset, split string) ([]DataPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.Root, dataset, split))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewAppError(common.CodeDataset,
				fmt.Sprintf("split %s/%s", dataset, split), fmt.Errorf("%w: %v", common.ErrNotFound, err))
		}
		return nil, common.WrapError(err, "list data points")
	}

	out := make([]DataPoint, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		out = append(out, DataPoint{Dataset: dataset, Split: split, ID: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FSStore) Files(ctx context.Context, dp DataPoint) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir(dp))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(dp, "", err)
		}
		return nil, common.WrapError(err, "list files")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *FSStore) Load(ctx context.Context, dp DataPoint, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(s.dir(dp), name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(dp, name, err)
		}
		return nil, common.WrapError(err, fmt.Sprintf("read %s/%s", dp, name))
	}
	return b, nil
}

func (s *FSStore) Save(ctx context.Context, dp DataPoint, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.dir(dp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return common.WrapError(err, "create data point dir")
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return common.WrapError(err, fmt.Sprintf("write %s/%s", dp, name))
	}
	return nil
}

// LocalPath returns the on-disk path of a data point file.
func (s *FSStore) LocalPath(dp DataPoint, name string) string {
	return filepath.Join(s.dir(dp), name)
}

var _ Store = (*FSStore)(nil)
