package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFileIsEmpty(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read() = %v, want nothing", got)
	}
}

func TestParse_TextHandlerLine(t *testing.T) {
	line := `time=2025-10-08T21:01:05.123Z level=WARN msg="query failed" key=getBookById(b1) error="api GET /api/books/b1 returned status 404: Book not found"`
	e := Parse(line)

	if e.Level != "WARN" {
		t.Fatalf("Level = %q, want WARN", e.Level)
	}
	if e.Message != "query failed" {
		t.Fatalf("Message = %q", e.Message)
	}
	if e.Time.IsZero() || e.Time.Second() != 5 {
		t.Fatalf("Time = %v", e.Time)
	}
	want := []Attr{
		{Key: "key", Value: "getBookById(b1)"},
		{Key: "error", Value: "api GET /api/books/b1 returned status 404: Book not found"},
	}
	if !reflect.DeepEqual(e.Attrs, want) {
		t.Fatalf("Attrs = %#v, want %#v", e.Attrs, want)
	}
	if e.Raw != line {
		t.Fatalf("Raw = %q", e.Raw)
	}
}

func TestParse_JSONHandlerLine(t *testing.T) {
	e := Parse(`{"time":"2025-10-08T21:01:05Z","level":"DEBUG","msg":"cache hit","key":"listBooks","seq":3}`)

	if e.Level != "DEBUG" || e.Message != "cache hit" {
		t.Fatalf("entry = %+v", e)
	}
	want := []Attr{{Key: "key", Value: "listBooks"}, {Key: "seq", Value: "3"}}
	if !reflect.DeepEqual(e.Attrs, want) {
		t.Fatalf("Attrs = %#v, want %#v", e.Attrs, want)
	}
}

func TestParse_UnstructuredLine(t *testing.T) {
	for _, line := range []string{"panic: something broke", "", `msg="unterminated`} {
		e := Parse(line)
		if e.Message != line || e.Level != "" {
			t.Fatalf("Parse(%q) = %+v, want raw message", line, e)
		}
	}
}

func TestParseAll_KeepsOrder(t *testing.T) {
	entries := ParseAll([]string{"level=INFO msg=one", "level=ERROR msg=two"})
	if len(entries) != 2 || entries[0].Message != "one" || entries[1].Level != "ERROR" {
		t.Fatalf("ParseAll = %+v", entries)
	}
}
