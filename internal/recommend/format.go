// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"math"
	"strconv"
	"strings"
)

const (
	metersPerMile     = 1609.34
	unknownImageType  = "urn:image:place:unknown"
	noImageEmoji      = "🌟"
	noAffinity        = "—"
	fullStar          = "★"
	halfStar          = "½"
	unknownEntityType = "Unknown"
	maxStars          = 5
)

// FormatEntity converts a raw upstream entity into its display form.
// It never fails; missing fields stay empty.
func FormatEntity(raw *RawEntity) Entity {
	e := Entity{
		EntityID:    raw.EntityID,
		Name:        raw.Name,
		Type:        displayType(raw),
		Description: raw.Properties.Description,
		Address:     raw.Properties.Address,
		Image:       pickImage(raw),
		Affinity:    noAffinity,
		PriceRange:  priceBand(raw.Properties.PriceLevel),
	}

	rating := 0.0
	if raw.Properties.BusinessRating.Valid {
		rating = raw.Properties.BusinessRating.Value
	}
	e.RatingStars, e.StarValue = stars(rating)

	if e.Image == "" {
		e.Emoji = noImageEmoji
	}

	if raw.Query.Distance.Truthy() {
		miles := math.Round(raw.Query.Distance.Value/metersPerMile*10) / 10
		e.DistanceMiles = &miles
		e.Distance = strconv.FormatFloat(miles, 'f', 1, 64) + " mi"
	}

	if raw.Query.Affinity.Truthy() {
		pct := int(math.Round(clamp(raw.Query.Affinity.Value, 0, 1) * 100))
		e.AffinityPercent = &pct
		e.Affinity = strconv.Itoa(pct) + "%"
	}
	return e
}

// FormatResults formats every entity, preserving order.
func FormatResults(raws []RawEntity) []Entity {
	out := make([]Entity, 0, len(raws))
	for i := range raws {
		out = append(out, FormatEntity(&raws[i]))
	}
	return out
}

// displayType is the first category tag name, else the city, else "Unknown".
func displayType(raw *RawEntity) string {
	for _, t := range raw.Tags {
		if strings.Contains(t.Type, "category") && t.Name != "" {
			return t.Name
		}
	}
	if raw.Properties.Geocode.City != "" {
		return raw.Properties.Geocode.City
	}
	return unknownEntityType
}

func pickImage(raw *RawEntity) string {
	if len(raw.Images) > 0 && raw.Images[0].URL != "" {
		return raw.Images[0].URL
	}
	imgs := raw.Properties.Images
	if len(imgs) > 0 && imgs[0].URL != "" {
		return imgs[0].URL
	}
	for _, img := range imgs {
		if img.Type == unknownImageType && img.URL != "" {
			return img.URL
		}
	}
	return ""
}

// stars renders a 0-5 rating as "★★★★½" and returns the numeric star value.
// Ratings outside that range are clamped.
func stars(rating float64) (string, float64) {
	if math.IsNaN(rating) {
		rating = 0
	}
	rating = clamp(rating, 0, maxStars)
	full := math.Floor(rating)
	value := full
	s := strings.Repeat(fullStar, int(full))
	if rating-full >= 0.5 {
		s += halfStar
		value += 0.5
	}
	return s, value
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func priceBand(level OptFloat) string {
	if !level.Truthy() {
		return ""
	}
	switch {
	case level.Value <= 1:
		return "low"
	case level.Value <= 2:
		return "medium"
	default:
		return "high"
	}
}

// ParseDistance reads the leading number of a display distance ("1.2 mi").
func ParseDistance(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '.' || s[end] == '-' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatTime converts an upstream "T09:00" time into "9:00 AM". Empty input
// yields "N/A"; other unparseable input is returned unchanged.
func FormatTime(t string) string {
	if strings.TrimSpace(t) == "" {
		return "N/A"
	}
	s := strings.TrimPrefix(strings.TrimSpace(t), "T")
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return t
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return t
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return strconv.Itoa(display) + ":" + parts[1] + " " + suffix
}

// distanceOf returns the entity's distance in miles, preferring the parsed
// value and falling back to the display string.
func distanceOf(e *Entity) (float64, bool) {
	if e.DistanceMiles != nil {
		return *e.DistanceMiles, true
	}
	if e.Distance != "" {
		return ParseDistance(e.Distance)
	}
	return 0, false
}
