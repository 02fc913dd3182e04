// Package id3 sanitizes ID3 metadata on downloaded audio files.
package id3

import (
	"github.com/bogem/id3v2"
	"github.com/cockroachdb/errors"
)

// Strip removes every ID3v2 frame from the file at path.
// Files without frames are left untouched.
func Strip(path string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return errors.Wrapf(err, "failed to open tags of %s", path)
	}
	defer tag.Close()

	if !tag.HasFrames() {
		return nil
	}

	tag.DeleteAllFrames()
	if err := tag.Save(); err != nil {
		return errors.Wrapf(err, "failed to save tags of %s", path)
	}
	return nil
}
