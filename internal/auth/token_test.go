// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		header     string
		allowQuery bool
		want       string
	}{
		{"bearer", "/", "Bearer abc", false, "abc"},
		{"bearer lowercase scheme", "/", "bearer abc ", false, "abc"},
		{"bearer wins over query", "/?token=q", "Bearer h", true, "h"},
		{"query allowed", "/?token=q", "", true, "q"},
		{"query ignored", "/?token=q", "", false, ""},
		{"basic is not a token", "/", "Basic dXNlcg==", false, ""},
		{"empty", "/", "", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(r, tt.allowQuery))
		})
	}
	assert.Empty(t, ExtractToken(nil, true))
}
