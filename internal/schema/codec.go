package schema

import (
	"fmt"
	"strconv"
	"strings"
)

const maxKeyword = "MAX"

var scalarKeywords = map[Kind]string{
	KindBool:      "BOOL",
	KindInt64:     "INT64",
	KindFloat64:   "FLOAT64",
	KindDate:      "DATE",
	KindTimestamp: "TIMESTAMP",
	KindString:    "STRING",
	KindBytes:     "BYTES",
}

// FormatType renders t in Spanner DDL syntax, e.g. ARRAY<STRING(MAX)>
func FormatType(t Type) (string, error) {
	if t.Kind != KindArray && t.Elem != nil {
		return "", fmt.Errorf("%w: element type on non-array kind %d", ErrInvalidType, t.Kind)
	}
	switch t.Kind {
	case KindBool, KindInt64, KindFloat64, KindDate, KindTimestamp:
		if t.Size != NoSize {
			return "", fmt.Errorf("%w: %s takes no size, got %d", ErrInvalidType, scalarKeywords[t.Kind], t.Size)
		}
		return scalarKeywords[t.Kind], nil
	case KindString, KindBytes:
		size, err := formatSize(t.Size)
		if err != nil {
			return "", fmt.Errorf("%w: %s %v", ErrInvalidType, scalarKeywords[t.Kind], err)
		}
		return scalarKeywords[t.Kind] + "(" + size + ")", nil
	case KindArray:
		if t.Elem == nil {
			return "", fmt.Errorf("%w: ARRAY without element type", ErrInvalidType)
		}
		if t.Size != NoSize {
			return "", fmt.Errorf("%w: ARRAY takes no size, got %d", ErrInvalidType, t.Size)
		}
		elem, err := FormatType(*t.Elem)
		if err != nil {
			return "", err
		}
		return "ARRAY<" + elem + ">", nil
	}
	return "", fmt.Errorf("%w: unknown kind %d", ErrInvalidType, t.Kind)
}

func formatSize(size Size) (string, error) {
	switch {
	case size == MaxSize:
		return maxKeyword, nil
	case size > 0:
		return strconv.FormatInt(int64(size), 10), nil
	case size == NoSize:
		return "", fmt.Errorf("requires a size bound")
	}
	return "", fmt.Errorf("has invalid size %d", size)
}

// ParseType is the inverse of FormatType
func ParseType(text string) (Type, error) {
	switch text {
	case "BOOL":
		return Bool(), nil
	case "INT64":
		return Int64(), nil
	case "FLOAT64":
		return Float64(), nil
	case "DATE":
		return Date(), nil
	case "TIMESTAMP":
		return Timestamp(), nil
	}

	if inner, ok := unwrap(text, "ARRAY<", ">"); ok {
		elem, err := ParseType(inner)
		if err != nil {
			return Type{}, err
		}
		return Array(elem), nil
	}
	if inner, ok := unwrap(text, "STRING(", ")"); ok {
		size, err := parseSize(inner)
		if err != nil {
			return Type{}, fmt.Errorf("%w: %q: %v", ErrInvalidType, text, err)
		}
		return String(size), nil
	}
	if inner, ok := unwrap(text, "BYTES(", ")"); ok {
		size, err := parseSize(inner)
		if err != nil {
			return Type{}, fmt.Errorf("%w: %q: %v", ErrInvalidType, text, err)
		}
		return Bytes(size), nil
	}

	return Type{}, fmt.Errorf("%w: unknown spanner type %q", ErrInvalidType, text)
}

func unwrap(text, prefix, suffix string) (string, bool) {
	if !strings.HasPrefix(text, prefix) || !strings.HasSuffix(text, suffix) {
		return "", false
	}
	if len(text) < len(prefix)+len(suffix) {
		return "", false
	}
	return text[len(prefix) : len(text)-len(suffix)], true
}

func parseSize(s string) (Size, error) {
	if s == maxKeyword {
		return MaxSize, nil
	}
	if !isCanonicalSize(s) {
		return NoSize, fmt.Errorf("size %q is not a positive decimal", s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return NoSize, fmt.Errorf("size %q is out of range", s)
	}
	return Size(n), nil
}

// isCanonicalSize matches [1-9][0-9]*, the only spelling FormatType produces
func isCanonicalSize(s string) bool {
	if s == "" || s[0] < '1' || s[0] > '9' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
