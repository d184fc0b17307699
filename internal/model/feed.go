package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Feed is a configured job source.
type Feed struct {
	ID              string
	Name            string
	URL             string // may be empty when the provider builds it from Auth
	Provider        string
	Active          bool
	Auth            map[string]string
	Params          Params
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastImportAt    *time.Time
	LastImportCount int
}

// Params holds provider parameters. Values are whatever the source produced:
// strings from the command line, float64 from JSON, ints and bools from code.
type Params map[string]any

// String returns the parameter as a trimmed string, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Int returns the parameter as an int, or def when absent or not numeric.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// Bool reports whether the parameter is set to a truthy value.
func (p Params) Bool(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}

// Has reports whether key is present with a non-empty value.
func (p Params) Has(key string) bool {
	return p.String(key) != ""
}

// Normalize converts numeric strings to ints and "true"/"false" to bools, in
// place, so parameters entered as text are stored with their natural type.
func (p Params) Normalize() Params {
	for k, v := range p {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if n, err := strconv.Atoi(s); err == nil {
			p[k] = n
			continue
		}
		switch strings.ToLower(s) {
		case "true":
			p[k] = true
		case "false":
			p[k] = false
		default:
			p[k] = s
		}
	}
	return p
}
