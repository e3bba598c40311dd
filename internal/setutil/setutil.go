// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package setutil provides small string-set helpers used when combining role lists.
package setutil

import "sort"

// StringSet is a set of strings. Membership is case-sensitive.
type StringSet struct {
	contents map[string]struct{}
	ordered  []string
}

// NewStringSet returns a set containing the given items, with first-seen
// insertion order preserved and duplicates collapsed.
func NewStringSet(items ...string) *StringSet {
	s := &StringSet{contents: make(map[string]struct{}, len(items))}
	s.Insert(items...)
	return s
}

// Insert adds items to the set, keeping insertion order for new items.
func (s *StringSet) Insert(items ...string) {
	for _, item := range items {
		if _, ok := s.contents[item]; ok {
			continue
		}
		s.contents[item] = struct{}{}
		s.ordered = append(s.ordered, item)
	}
}

// Has returns true when item is a member of the set.
func (s *StringSet) Has(item string) bool {
	if s == nil {
		return false
	}
	_, ok := s.contents[item]
	return ok
}

// HasAny returns true when any of the given items is a member of the set.
func (s *StringSet) HasAny(items []string) bool {
	if s == nil {
		return false
	}
	for _, item := range items {
		if s.Has(item) {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s *StringSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.contents)
}

// List returns the members in insertion order.
func (s *StringSet) List() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// SortedList returns the members sorted lexicographically.
func (s *StringSet) SortedList() []string {
	out := s.List()
	sort.Strings(out)
	return out
}
