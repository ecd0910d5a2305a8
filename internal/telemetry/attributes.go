// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Catalog attributes
	CatalogOpKey       = "catalog.op"
	CatalogBackendKey  = "catalog.backend"
	CatalogVideoIDKey  = "catalog.video_id"
	CatalogSlugKey     = "catalog.slug"
	CatalogResultsKey  = "catalog.results"
	CatalogCacheHitKey = "catalog.cache_hit"

	// Playback attributes
	PlaybackSessionKey = "playback.session_id"
	PlaybackMessageKey = "playback.message"
	PlaybackPhaseKey   = "playback.phase"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// CatalogAttributes describes one store call.
func CatalogAttributes(backend, op string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CatalogBackendKey, backend),
		attribute.String(CatalogOpKey, op),
	}
}

// PlaybackAttributes describes one applied player message.
func PlaybackAttributes(sessionID, message, phase string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PlaybackSessionKey, sessionID),
		attribute.String(PlaybackMessageKey, message),
		attribute.String(PlaybackPhaseKey, phase),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(err error, errorType string) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
