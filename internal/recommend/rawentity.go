// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// RawEntity is an upstream place as returned by the taste-graph API.
//
// Decoding is tolerant: a field of an unexpected shape is dropped instead of
// failing the whole entity, and numbers may arrive as strings.
type RawEntity struct {
	EntityID   string     `json:"entity_id"`
	Name       string     `json:"name"`
	Type       string     `json:"type,omitempty"`
	Subtype    string     `json:"subtype,omitempty"`
	Properties Properties `json:"properties"`
	Tags       []Tag      `json:"tags,omitempty"`
	Images     []Image    `json:"images,omitempty"`
	Query      QueryInfo  `json:"query"`
}

// Properties are the nested place attributes.
type Properties struct {
	Address         string                   `json:"address,omitempty"`
	BusinessRating  OptFloat                 `json:"business_rating"`
	Description     string                   `json:"description,omitempty"`
	Phone           string                   `json:"phone,omitempty"`
	Website         string                   `json:"website,omitempty"`
	MenuURL         string                   `json:"menu_url,omitempty"`
	Hours           map[string][]OpeningSpan `json:"hours,omitempty"`
	PriceLevel      OptFloat                 `json:"price_level"`
	PriceRange      *PriceRange              `json:"price_range,omitempty"`
	SpecialtyDishes []NamedRef               `json:"specialty_dishes,omitempty"`
	GoodFor         []NamedRef               `json:"good_for,omitempty"`
	Images          []Image                  `json:"images,omitempty"`
	Geocode         Geocode                  `json:"geocode"`
}

// Tag is an upstream classification such as {"type":"urn:tag:category:place","name":"Sushi"}.
type Tag struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Image is an entity image reference.
type Image struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// QueryInfo holds query-relative scores attached by the upstream.
type QueryInfo struct {
	// Distance is in meters.
	Distance OptFloat `json:"distance"`
	// Affinity is in [0, 1].
	Affinity OptFloat `json:"affinity"`
}

// OpeningSpan is one opening interval, times formatted like "T09:00".
type OpeningSpan struct {
	Opens  string `json:"opens"`
	Closes string `json:"closes"`
}

// PriceRange is a price band in a currency.
type PriceRange struct {
	From     OptFloat `json:"from"`
	To       OptFloat `json:"to"`
	Currency string   `json:"currency,omitempty"`
}

// NamedRef is a referenced sub-entity where only the name matters.
type NamedRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Geocode carries the locality of a place.
type Geocode struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country_code,omitempty"`
	Name    string `json:"name,omitempty"`
}

// OptFloat is an optional number that also accepts numeric strings.
// Anything else, including NaN and infinities, decodes as absent.
type OptFloat struct {
	Value float64
	Valid bool
}

// Some returns a present OptFloat.
func Some(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// UnmarshalJSON never fails; unusable input leaves f absent.
func (f *OptFloat) UnmarshalJSON(b []byte) error {
	*f = OptFloat{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = strings.TrimSpace(unq)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && isFinite(v) {
		*f = Some(v)
	}
	return nil
}

// MarshalJSON writes null for an absent value.
func (f OptFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid || !isFinite(f.Value) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f.Value, 'f', -1, 64), nil
}

// Truthy mirrors the upstream convention that 0 means "not provided".
func (f OptFloat) Truthy() bool {
	return f.Valid && f.Value != 0 && isFinite(f.Value)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// rawEntityStrict has the same layout as RawEntity without the custom decoder.
type rawEntityStrict RawEntity

// looseEntity is decoded field by field when the strict decode fails.
type looseEntity struct {
	EntityID   json.RawMessage `json:"entity_id"`
	Name       json.RawMessage `json:"name"`
	Type       json.RawMessage `json:"type"`
	Subtype    json.RawMessage `json:"subtype"`
	Properties json.RawMessage `json:"properties"`
	Tags       json.RawMessage `json:"tags"`
	Images     json.RawMessage `json:"images"`
	Query      json.RawMessage `json:"query"`
}

// UnmarshalJSON decodes an entity, dropping any field whose shape is wrong.
// It only fails when b is not a JSON object.
func (e *RawEntity) UnmarshalJSON(b []byte) error {
	var strict rawEntityStrict
	if err := json.Unmarshal(b, &strict); err == nil {
		*e = RawEntity(strict)
		return nil
	}

	var loose looseEntity
	if err := json.Unmarshal(b, &loose); err != nil {
		return err
	}

	*e = RawEntity{}
	decodeSoft(loose.EntityID, &e.EntityID)
	decodeSoft(loose.Name, &e.Name)
	decodeSoft(loose.Type, &e.Type)
	decodeSoft(loose.Subtype, &e.Subtype)
	decodeSoft(loose.Tags, &e.Tags)
	decodeSoft(loose.Images, &e.Images)
	decodeSoft(loose.Query, &e.Query)
	e.Properties = decodeProperties(loose.Properties)
	return nil
}

func decodeProperties(raw json.RawMessage) Properties {
	var p Properties
	if len(raw) == 0 {
		return p
	}
	if err := json.Unmarshal(raw, &p); err == nil {
		return p
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Properties{}
	}
	p = Properties{}
	decodeSoft(fields["address"], &p.Address)
	decodeSoft(fields["business_rating"], &p.BusinessRating)
	decodeSoft(fields["description"], &p.Description)
	decodeSoft(fields["phone"], &p.Phone)
	decodeSoft(fields["website"], &p.Website)
	decodeSoft(fields["menu_url"], &p.MenuURL)
	decodeSoft(fields["hours"], &p.Hours)
	decodeSoft(fields["price_level"], &p.PriceLevel)
	decodeSoft(fields["price_range"], &p.PriceRange)
	decodeSoft(fields["specialty_dishes"], &p.SpecialtyDishes)
	decodeSoft(fields["good_for"], &p.GoodFor)
	decodeSoft(fields["images"], &p.Images)
	decodeSoft(fields["geocode"], &p.Geocode)
	return p
}

// decodeSoft decodes raw into dst and leaves dst zeroed on failure.
func decodeSoft[T any](raw json.RawMessage, dst *T) {
	if len(raw) == 0 {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

// ParseRawEntities decodes a JSON array of entities. Elements that are not
// objects are skipped. A payload that is not an array yields an error.
func ParseRawEntities(data []byte) ([]RawEntity, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	out := make([]RawEntity, 0, len(items))
	for _, item := range items {
		var e RawEntity
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Dedupe keeps the first occurrence of every entity ID, preserving order.
// Entities without an ID cannot be keyed and are dropped.
func Dedupe(entities []RawEntity) []RawEntity {
	seen := make(map[string]struct{}, len(entities))
	out := make([]RawEntity, 0, len(entities))
	for i := range entities {
		id := entities[i].EntityID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, entities[i])
	}
	return out
}
