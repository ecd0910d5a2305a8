// SPDX-License-Identifier: MIT

// Package openapi embeds the JSON API description.
package openapi

import _ "embed"

// Spec is the OpenAPI 3 document of the /api/v1 surface.
//
//go:embed openapi.yaml
var Spec []byte
