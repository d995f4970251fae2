// Package zip bundles run artifacts, such as the mix reports, into a
// single archive for email delivery.
package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archive compresses the named files into one zip written at target
// and returns the archive size in bytes. Entries keep their base names
// only; the recipient has no use for the run's directory layout.
func Archive(target string, sources []string) (int64, error) {
	if len(sources) == 0 {
		return 0, fmt.Errorf("no files to archive")
	}
	zipFile, err := os.Create(target)
	if err != nil {
		return 0, err
	}
	defer zipFile.Close()
	zipWriter := zip.NewWriter(zipFile)
	for _, source := range sources {
		if err = addEntry(zipWriter, source); err != nil {
			_ = zipWriter.Close()
			return 0, err
		}
	}
	if err = zipWriter.Close(); err != nil {
		return 0, err
	}
	info, err := zipFile.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func addEntry(zipWriter *zip.Writer, source string) error {
	file, err := os.Open(source)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(source)
	header.Method = zip.Deflate
	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, file)
	return err
}
