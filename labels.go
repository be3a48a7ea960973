package yolostream

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptyLabels is returned when a label file contains no class names
var ErrEmptyLabels = errors.New("no labels found")

// Labels holds the class names the detector was trained with, the index of
// each name is its class id
type Labels []string

// LoadLabels reads the class names from the given text file.  It should
// contain one label per line.
func LoadLabels(file string) (Labels, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels Labels

	// read and trim each line, blank lines keep their class id slot
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyLabels, file)
	}

	return labels, nil
}

// Name returns the class name for id and false when id has no label
func (l Labels) Name(id int) (string, bool) {

	if id < 0 || id >= len(l) {
		return "", false
	}

	return l[id], true
}
