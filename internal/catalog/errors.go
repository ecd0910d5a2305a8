// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import "errors"

var (
	// ErrNotFound is returned by stores when a video or category does not exist.
	ErrNotFound = errors.New("catalog: not found")
	// ErrInvalidID is returned for empty identifiers and slugs.
	ErrInvalidID = errors.New("catalog: invalid identifier")
)

// User-facing notification texts.
const (
	MsgVideosFailed       = "Impossible de charger les vidéos"
	MsgVideoFailed        = "Impossible de charger la vidéo"
	MsgCategoriesFailed   = "Impossible de charger les catégories"
	MsgCategoryLookupFail = "Impossible de trouver la catégorie"
	MsgCategoryNotFound   = "Catégorie non trouvée"
)
