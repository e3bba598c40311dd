// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preauth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"go.georchestra.org/gateway/internal/token"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		enabled bool
		headers map[string]string
		want    *token.Token
	}{
		{
			name:    "full preauth request",
			enabled: true,
			headers: map[string]string{
				MarkerHeader:    "true",
				HeaderUsername:  "jdoe",
				HeaderEmail:     "jdoe@example.com",
				HeaderFirstName: "Jane",
				HeaderLastName:  "Doe",
				HeaderOrg:       "NEWORG",
				HeaderRoles:     "ADMINISTRATOR;SUPERUSER",
			},
			want: &token.Token{
				Kind:        token.KindPreauth,
				Username:    "jdoe",
				Authorities: []string{"ADMINISTRATOR", "SUPERUSER"},
				Preauth: &token.Preauth{
					Username: "jdoe", Email: "jdoe@example.com",
					FirstName: "Jane", LastName: "Doe", Org: "NEWORG",
					Roles: []string{"ADMINISTRATOR", "SUPERUSER"},
				},
			},
		},
		{
			name:    "marker case-insensitive",
			enabled: true,
			headers: map[string]string{MarkerHeader: "TRUE", HeaderUsername: "jdoe"},
			want: &token.Token{
				Kind:     token.KindPreauth,
				Username: "jdoe",
				Preauth:  &token.Preauth{Username: "jdoe"},
			},
		},
		{
			name:    "missing marker means no trust",
			enabled: true,
			headers: map[string]string{HeaderUsername: "jdoe"},
		},
		{
			name:    "marker without username is not a principal",
			enabled: true,
			headers: map[string]string{MarkerHeader: "true"},
		},
		{
			name:    "disabled extractor never trusts",
			enabled: false,
			headers: map[string]string{MarkerHeader: "true", HeaderUsername: "jdoe"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/geoserver/wms", nil)
			for name, value := range test.headers {
				r.Header.Set(name, value)
			}

			got := (&Extractor{Enabled: test.enabled}).Extract(r)
			require.Equal(t, test.want, got)

			// headers are gone regardless of the trust outcome
			require.Empty(t, r.Header.Get(MarkerHeader))
			require.Empty(t, r.Header.Get(HeaderUsername))
			require.Empty(t, r.Header.Get(HeaderRoles))
		})
	}
}

func TestStripRemovesEveryPreauthHeader(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(MarkerHeader, "true")
	r.Header.Set("Preauth-Username", "spoofed")
	r.Header.Set("preauth-custom-extra", "spoofed")
	r.Header.Set("Accept", "application/json")

	Strip(r.Header)

	require.Len(t, r.Header, 1)
	require.Equal(t, "application/json", r.Header.Get("Accept"))
}
