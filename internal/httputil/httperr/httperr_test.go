// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(http.StatusBadRequest, "bad request error")
	require.EqualError(t, err, "bad request error")

	rec := httptest.NewRecorder()
	err.(Responder).Respond(rec)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Bad Request: bad request error\n", rec.Body.String())
}

func TestNewf(t *testing.T) {
	err := Newf(http.StatusBadRequest, "some %s error", "formatted")
	require.EqualError(t, err, "some formatted error")

	rec := httptest.NewRecorder()
	err.(Responder).Respond(rec)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Bad Request: some formatted error\n", rec.Body.String())
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("some internal error")
	err := Wrap(http.StatusInternalServerError, "unexpected error", cause)
	require.EqualError(t, err, "unexpected error: some internal error")
	require.ErrorIs(t, err, cause)

	rec := httptest.NewRecorder()
	err.(Responder).Respond(rec)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal Server Error: unexpected error\n", rec.Body.String(),
		"the wrapped cause must not leak into the response")
}

func TestHandlerFunc(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "nil error",
			wantCode: http.StatusOK,
		},
		{
			name:     "responder error",
			err:      New(http.StatusForbidden, "nope"),
			wantCode: http.StatusForbidden,
			wantBody: "Forbidden: nope\n",
		},
		{
			name:     "wrapped responder error",
			err:      fmt.Errorf("outer: %w", New(http.StatusForbidden, "nope")),
			wantCode: http.StatusForbidden,
			wantBody: "Forbidden: nope\n",
		},
		{
			name:     "plain error stays opaque",
			err:      errors.New("some internal detail"),
			wantCode: http.StatusInternalServerError,
			wantBody: "Internal Server Error\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
				return test.err
			}).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

			require.Equal(t, test.wantCode, rec.Code)
			if test.wantBody != "" {
				require.Equal(t, test.wantBody, rec.Body.String())
			}
		})
	}
}
