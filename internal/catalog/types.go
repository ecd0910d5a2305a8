// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package catalog reads videos and categories from the hosted store, normalizes
// them for display and counts views.
//
// Every Service operation degrades instead of failing: errors are logged, a
// notification is sent through the notifier carried in the context, and the
// caller receives an empty slice or nil.
package catalog

import (
	"strings"
	"time"
)

// Category groups videos. Slug is unique and URL-safe.
type Category struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Slug        string `json:"slug" yaml:"slug"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	BannerURL   string `json:"banner_url,omitempty" yaml:"banner_url,omitempty"`
}

// Video is a catalog entry. Views only ever grows.
type Video struct {
	ID           string            `json:"id" yaml:"id"`
	Title        string            `json:"title" yaml:"title"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty" yaml:"thumbnail_url,omitempty"`
	VideoURL     string            `json:"video_url" yaml:"video_url"`
	Duration     string            `json:"duration,omitempty" yaml:"duration,omitempty"`
	Views        int64             `json:"views" yaml:"views"`
	CategoryID   string            `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	Client       string            `json:"client,omitempty" yaml:"client,omitempty"`
	UploadDate   time.Time         `json:"upload_date,omitzero" yaml:"upload_date,omitempty"`
	Renditions   map[string]string `json:"renditions,omitempty" yaml:"renditions,omitempty"`
	Category     *Category         `json:"category,omitempty" yaml:"-"`
}

// CategoryName returns the embedded category name, or "".
func (v Video) CategoryName() string {
	if v.Category == nil {
		return ""
	}
	return v.Category.Name
}

// normalizeVideo trims text fields and reconciles the category reference with the
// embedded category.
func normalizeVideo(v *Video) {
	v.Title = strings.TrimSpace(v.Title)
	v.Description = strings.TrimSpace(v.Description)
	v.Client = strings.TrimSpace(v.Client)
	if v.Views < 0 {
		v.Views = 0
	}
	if v.Category != nil && v.Category.ID == "" {
		v.Category = nil
	}
	if v.Category != nil {
		c := *v.Category
		normalizeCategory(&c)
		v.Category = &c
		if v.CategoryID == "" {
			v.CategoryID = c.ID
		}
	}
	var renditions map[string]string
	for q, u := range v.Renditions {
		if u = strings.TrimSpace(u); u != "" {
			if renditions == nil {
				renditions = make(map[string]string, len(v.Renditions))
			}
			renditions[strings.ToLower(strings.TrimSpace(q))] = u
		}
	}
	v.Renditions = renditions
}

func normalizeCategory(c *Category) {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = strings.TrimSpace(c.Slug)
	c.Description = strings.TrimSpace(c.Description)
}
