// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package here

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDoc(t *testing.T) {
	t.Parallel()

	require.Equal(t, "the quick brown fox", Doc("the quick brown fox"))
	require.Equal(t, "  the quick brown fox", Doc("  the quick brown fox"))

	require.Equal(t,
		"the quick brown fox\njumped over the\nlazy dog",
		Doc(`the quick brown fox
			jumped over the
			lazy dog`),
		"indentation is removed")

	require.Equal(t,
		"the quick brown fox\n    jumped over the\n        lazy dog\n",
		Doc(`
			the quick brown fox
				jumped over the
					lazy dog
		`),
		"the leading empty line is dropped and tabs become 4 spaces")
}

func TestDocf(t *testing.T) {
	t.Parallel()

	require.Equal(t, "the quick brown fox", Docf("the quick brown %s", "fox"))

	require.Equal(t,
		"the quick brown fox\njumped over the\nlazy dog",
		Docf(`the quick brown %s
			jumped over the
			lazy %s`, "fox", "dog"))
}
