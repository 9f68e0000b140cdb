package strategy

import (
	"time"
)

// Params wraps the run parameter map with typed accessors. JSON decodes
// every number as float64, so the integer accessor converts.
type Params map[string]interface{}

// Float returns the named parameter as a float64
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return def
}

// Int returns the named parameter as an int
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return def
}

// Duration returns the named parameter parsed as a Go duration string
func (p Params) Duration(key string, def time.Duration) time.Duration {
	s, ok := p[key].(string)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// String returns the named parameter as a string
func (p Params) String(key, def string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the named parameter as a bool
func (p Params) Bool(key string, def bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return def
}
