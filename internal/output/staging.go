package output

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	jww "github.com/spf13/jwalterweatherman"
)

// staging writes files under a temporary name next to their final path.
// Nothing appears under a final name until commit, and abort removes every
// staged file, so a failed conversion leaves no partial output behind.
type staging struct {
	id    string
	files []stagedFile
}

type stagedFile struct {
	fs    afero.Fs
	temp  string
	final string
}

func newStaging() (*staging, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create staging id")
	}
	return &staging{id: id}, nil
}

// write stages the file at path on fs with the content write produces.
func (s *staging) write(fs afero.Fs, path string, write func(w io.Writer) error) error {
	dir, name := filepath.Split(path)
	if dir != "" {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "unable to create %s", dir)
		}
	}

	temp := filepath.Join(dir, "."+name+"."+s.id+".tmp")
	f, err := fs.Create(temp)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	s.files = append(s.files, stagedFile{fs: fs, temp: temp, final: path})

	if err := write(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "unable to write %s", path)
	}

	return errors.Wrapf(f.Close(), "unable to write %s", path)
}

// commit moves every staged file to its final name. When a move fails the
// files not moved yet are removed, and the error names the files that did
// make it into place.
func (s *staging) commit() error {
	files := s.files
	s.files = nil

	for i, file := range files {
		if err := file.fs.Rename(file.temp, file.final); err != nil {
			var savedErrs *multierror.Error
			savedErrs = multierror.Append(savedErrs, errors.Wrapf(err, "unable to move %s into place", file.final))
			for _, committed := range files[:i] {
				savedErrs = multierror.Append(savedErrs, errors.Errorf("%s was already written", committed.final))
			}
			if err := removeAll(files[i:]); err != nil {
				savedErrs = multierror.Append(savedErrs, err)
			}
			return savedErrs.ErrorOrNil()
		}
		jww.INFO.Println("Wrote", file.final)
	}

	return nil
}

func (s *staging) abort() error {
	files := s.files
	s.files = nil
	return removeAll(files)
}

func removeAll(files []stagedFile) error {
	var savedErrs *multierror.Error
	for _, file := range files {
		if err := file.fs.Remove(file.temp); err != nil && !os.IsNotExist(err) {
			savedErrs = multierror.Append(savedErrs, err)
		}
	}
	return savedErrs.ErrorOrNil()
}

// stage runs fn with a fresh staging area and commits it when fn succeeds.
func stage(fn func(s *staging) error) error {
	s, err := newStaging()
	if err != nil {
		return err
	}

	if err := fn(s); err != nil {
		_ = s.abort()
		return err
	}

	return s.commit()
}
