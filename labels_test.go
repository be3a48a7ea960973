package yolostream

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {

	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed writing %s: %v", path, err)
	}

	return path
}

func TestLoadLabels(t *testing.T) {

	tests := []struct {
		name     string
		content  string
		expected Labels
	}{
		{"unix newlines", "person\nbicycle\ncar\n", Labels{"person", "bicycle", "car"}},
		{"no trailing newline", "person\nbicycle", Labels{"person", "bicycle"}},
		{"windows newlines", "person\r\nbicycle\r\n", Labels{"person", "bicycle"}},
		{"blank line keeps slot", "person\n\ncar\n", Labels{"person", "", "car"}},
		{"inner spaces kept", "traffic light\n", Labels{"traffic light"}},
	}

	for _, tc := range tests {

		labels, err := LoadLabels(writeFile(t, "labels.txt", tc.content))

		if err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
			continue
		}

		if len(labels) != len(tc.expected) {
			t.Errorf("%s: expected %d labels, got %d", tc.name, len(tc.expected), len(labels))
			continue
		}

		for i := range labels {
			if labels[i] != tc.expected[i] {
				t.Errorf("%s: label %d expected %q, got %q", tc.name, i, tc.expected[i], labels[i])
			}
		}
	}
}

func TestLoadLabelsErrors(t *testing.T) {

	if _, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Errorf("expected error for missing file")
	}

	_, err := LoadLabels(writeFile(t, "empty.txt", ""))

	if !errors.Is(err, ErrEmptyLabels) {
		t.Errorf("expected ErrEmptyLabels, got %v", err)
	}
}

func TestLabelsName(t *testing.T) {

	labels := Labels{"person", "bicycle"}

	tests := []struct {
		id   int
		name string
		ok   bool
	}{
		{0, "person", true},
		{1, "bicycle", true},
		{2, "", false},
		{-1, "", false},
	}

	for _, tc := range tests {
		name, ok := labels.Name(tc.id)

		if name != tc.name || ok != tc.ok {
			t.Errorf("Name(%d) = %q, %v expected %q, %v", tc.id, name, ok, tc.name, tc.ok)
		}
	}
}
