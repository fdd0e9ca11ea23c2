package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Attr is one key/value pair of a log record.
type Attr struct {
	Key   string
	Value string
}

// Entry is a parsed log line written by the slog text or JSON handler.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   []Attr
	Raw     string
}

// Parse splits a log line into its parts. Lines that are neither JSON nor
// key=value pairs come back with only Raw and Message set.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		if e, ok := parseJSON(trimmed); ok {
			e.Raw = line
			return e
		}
	}
	if e, ok := parseText(trimmed); ok {
		e.Raw = line
		return e
	}
	return Entry{Message: line, Raw: line}
}

// ParseAll parses every line.
func ParseAll(lines []string) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		out = append(out, Parse(line))
	}
	return out
}

func parseJSON(line string) (Entry, bool) {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return Entry{}, false
	}
	var e Entry
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := stringify(record[key])
		e.assign(key, value)
	}
	return e, true
}

func parseText(line string) (Entry, bool) {
	var e Entry
	found := false
	rest := line
	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \"") {
			return Entry{}, false
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return Entry{}, false
			}
			value, _ = strconv.Unquote(quoted)
			rest = rest[len(quoted):]
		} else {
			end := strings.IndexByte(rest, ' ')
			if end < 0 {
				end = len(rest)
			}
			value = rest[:end]
			rest = rest[end:]
		}
		e.assign(key, value)
		found = true
	}
	return e, found
}

func (e *Entry) assign(key, value string) {
	switch key {
	case "time":
		if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
			e.Time = t
		}
	case "level":
		e.Level = strings.ToUpper(value)
	case "msg":
		e.Message = value
	default:
		e.Attrs = append(e.Attrs, Attr{Key: key, Value: value})
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
