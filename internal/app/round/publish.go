package round

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// publish atomically replaces dst with a copy of src.
// Readers of dst see either the previous file or the complete new one.
func publish(src, dst string) (err error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "failed to open clip")
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to write clip")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close clip")
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return errors.Wrap(err, "failed to set clip permissions")
	}
	if err = os.Rename(tmpName, dst); err != nil {
		return errors.Wrapf(err, "failed to publish clip to %s", dst)
	}
	return nil
}
