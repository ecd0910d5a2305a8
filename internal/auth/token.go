// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package auth extracts playback session tokens from requests.
package auth

import (
	"net/http"
	"strings"
)

// QueryParam carries the token for clients that cannot set headers, such as
// EventSource.
const QueryParam = "token"

// ExtractToken retrieves the session token from the request.
// 1. Authorization: Bearer <token>
// 2. Query: ?token= (if allowed)
func ExtractToken(r *http.Request, allowQuery bool) string {
	if r == nil {
		return ""
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if allowQuery {
		return strings.TrimSpace(r.URL.Query().Get(QueryParam))
	}
	return ""
}
