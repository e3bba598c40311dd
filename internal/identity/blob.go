// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeBlob serializes a record to a compact JSON document (null fields omitted via the
// record's json tags) and Base64-encodes it, for the sec-user and sec-organization
// headers.
func EncodeBlob(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal header blob: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeBlob is the inverse of EncodeBlob.  Only used by tests and debugging tools.
func DecodeBlob(encoded string, into any) error {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode header blob: %w", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("unmarshal header blob: %w", err)
	}
	return nil
}
