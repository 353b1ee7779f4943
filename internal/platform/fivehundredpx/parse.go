package fivehundredpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/photogallery/internal/domain"
)

// listing is the envelope returned by the photos and photos/search endpoints.
// Entries are decoded one by one so a single malformed photo does not sink the page.
type listing struct {
	Photos *[]json.RawMessage `json:"photos"`
}

type photo struct {
	ID          flexString  `json:"id"`
	Description *string     `json:"description"`
	ImageURL    flexStrings `json:"image_url"`
}

// flexString accepts a JSON string or number
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

// flexStrings accepts a single JSON string or an array of strings.
// The API returns an array when several image sizes are requested.
type flexStrings []string

func (s *flexStrings) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if len(data) > 0 && data[0] == '[' {
		var v []string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = v
		return nil
	}

	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = []string{v}
	return nil
}

func (s flexStrings) first() string {
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseItems decodes a listing body into gallery items.
// Photos without an image URL are dropped, as are entries without an ID and
// entries that do not decode. Only a broken envelope is an error.
func parseItems(body []byte) ([]domain.GalleryItem, int, error) {
	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if l.Photos == nil {
		return nil, 0, fmt.Errorf("%w: missing photos array", ErrMalformedBody)
	}

	items := make([]domain.GalleryItem, 0, len(*l.Photos))
	dropped := 0
	for _, raw := range *l.Photos {
		var p photo
		if err := json.Unmarshal(raw, &p); err != nil {
			dropped++
			continue
		}

		item := domain.GalleryItem{
			ID:  string(p.ID),
			URL: p.ImageURL.first(),
		}
		if p.Description != nil {
			item.Caption = *p.Description
		}

		if err := item.Validate(); err != nil {
			dropped++
			continue
		}
		items = append(items, item)
	}

	return items, dropped, nil
}
