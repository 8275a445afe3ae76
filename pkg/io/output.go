package io

import (
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// OutputTo writes every file under dest, creating directories as needed and replacing any
// existing content. Files are written concurrently; all write errors are returned.
func OutputTo(files []File, dest string) error {
	errs := make(chan error)
	for idx := range files {
		go func(f File) {
			errs <- writeFile(f, dest)
		}(files[idx])
	}

	var err error
	for i := 0; i < len(files); i++ {
		err = multierr.Append(err, <-errs)
	}
	return err
}

func writeFile(f File, dest string) error {
	path := filepath.Join(dest, f.Path())
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	counter := &CountingWriter{Delegate: file}
	_, err = f.WriteTo(counter)
	err = multierr.Append(err, file.Close())
	if err != nil {
		return err
	}
	zap.L().Info("Wrote file", zap.String("path", path), zap.Int64("bytes", counter.BytesWritten))
	return nil
}

// ReadDir reads the named files from dir into RawFiles, skipping files that do not exist.
func ReadDir(dir string, paths []string) ([]File, error) {
	var files []File
	for _, p := range paths {
		content, err := os.ReadFile(filepath.Join(dir, p))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, &RawFile{FPath: p, Content: content})
	}
	return files, nil
}
