// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package constable provides an error type whose values can be declared as constants.
package constable

var _ error = Error("")

type Error string

func (e Error) Error() string {
	return string(e)
}
