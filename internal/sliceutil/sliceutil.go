// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sliceutil

// Map transforms a slice from an input type I to an output type O using a transform func.
func Map[I, O any](in []I, transform func(I) O) []O {
	out := make([]O, len(in))
	for i := range in {
		out[i] = transform(in[i])
	}
	return out
}

// Filter returns the elements of in for which keep returns true, preserving order.
func Filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for i := range in {
		if keep(in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}
