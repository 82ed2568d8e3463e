package domain

import (
	"net/url"
	"sort"
)

// FilterState maps a filter key to its selected value. A missing key is a
// wildcard, never an invalid selection. Values are never empty.
type FilterState map[string]string

func (s FilterState) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

func (s FilterState) Clone() FilterState {
	out := make(FilterState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s FilterState) Equal(other FilterState) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Keys returns the set keys in sorted order.
func (s FilterState) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values encodes the state as query parameters.
func (s FilterState) Values() url.Values {
	q := make(url.Values, len(s))
	for k, v := range s {
		q.Set(k, v)
	}
	return q
}

// FilterStateFromValues keeps the first non-empty value of every key in allowed.
// A nil allowed keeps every key.
func FilterStateFromValues(q url.Values, allowed map[string]struct{}) FilterState {
	s := make(FilterState)
	for k, vs := range q {
		if allowed != nil {
			if _, ok := allowed[k]; !ok {
				continue
			}
		}
		for _, v := range vs {
			if v != "" {
				s[k] = v
				break
			}
		}
	}
	return s
}
