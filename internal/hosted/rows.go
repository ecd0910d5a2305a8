package hosted

import (
	"strings"
	"time"

	"github.com/ManuGH/vidfolio/internal/catalog"
)

// videoRow is the wire shape of a videos row with its embedded category.
type videoRow struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     *string           `json:"description"`
	ThumbnailURL    *string           `json:"thumbnail_url"`
	VideoURL        string            `json:"video_url"`
	Duration        *string           `json:"duration"`
	Views           *int64            `json:"views"`
	CategoryID      *string           `json:"category_id"`
	Client          *string           `json:"client"`
	UploadDate      *string           `json:"upload_date"`
	Renditions      map[string]string `json:"renditions"`
	VideoCategories *catalog.Category `json:"video_categories"`
}

var uploadLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"}

func (r videoRow) video() catalog.Video {
	v := catalog.Video{
		ID:           r.ID,
		Title:        r.Title,
		Description:  deref(r.Description),
		ThumbnailURL: deref(r.ThumbnailURL),
		VideoURL:     r.VideoURL,
		Duration:     deref(r.Duration),
		CategoryID:   deref(r.CategoryID),
		Client:       deref(r.Client),
		Renditions:   r.Renditions,
		Category:     r.VideoCategories,
	}
	if r.Views != nil {
		v.Views = *r.Views
	}
	if raw := strings.TrimSpace(deref(r.UploadDate)); raw != "" {
		for _, layout := range uploadLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				v.UploadDate = t.UTC()
				break
			}
		}
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
