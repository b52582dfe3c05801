package types

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// LoadImageList lit le fichier de liste d'images.
// Un fichier absent est une erreur de configuration.
func LoadImageList(path string) ([]ImageEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewConfigurationError(
				fmt.Sprintf("image list file %s does not exist", path), nil, nil)
		}
		return nil, NewConfigurationError(
			fmt.Sprintf("cannot open image list file %s", path), nil, err)
	}
	defer f.Close()

	entries, err := ReadImageList(f)
	if err != nil {
		return nil, NewConfigurationError(
			fmt.Sprintf("cannot read image list file %s", path), nil, err)
	}
	return entries, nil
}

// ReadImageList analyse une liste d'images ligne par ligne
func ReadImageList(r io.Reader) ([]ImageEntry, error) {
	var entries []ImageEntry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		entry, ok := ParseImageLine(scanner.Text())
		if !ok {
			continue
		}
		entry.Line = lineNo
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
