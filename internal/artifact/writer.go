package artifact

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteToFile writes the pretty-printed artifact to path, creating parent
// directories. The file is written next to path and renamed into place so a
// reader never sees a partial artifact.
func (a ConfigArtifact) WriteToFile(path string) error {
	data, err := a.ToJSON()
	if err != nil {
		return errors.Wrap(err, "failed to serialize artifact")
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "failed to write %s", path)
}
