// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package assistant

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

// PromptInput is everything the guide prompt is built from.
type PromptInput struct {
	Profile  *models.UserProfile
	Message  string
	History  []models.ChatMessage
	Entities []recommend.RawEntity
	Now      time.Time
	City     string
}

// BuildPrompt renders the single user message sent to the model. History
// holds only the turns before Message.
func BuildPrompt(in *PromptInput) string {
	p := in.Profile
	if p == nil {
		p = &models.UserProfile{}
	}
	city := p.City(in.City)
	if city == "" {
		city = "their city"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are Sahayak, a friendly cultural guide for new migrants to %s.\n", city)
	b.WriteString(profileBlock(p))

	b.WriteString("\nUser Query: ")
	b.WriteString(in.Message)
	b.WriteString("\n\nPrevious Conversation (last exchanges):\n")
	for _, turn := range in.History {
		b.WriteString(turn.Role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteByte('\n')
	}

	b.WriteString("\nCurrent Recommendations Context:\n")
	blocks := make([]string, 0, len(in.Entities))
	for i := range in.Entities {
		blocks = append(blocks, EntityContext(&in.Entities[i]))
	}
	b.WriteString(strings.Join(blocks, "\n\n"))

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	fmt.Fprintf(&b, "\n\nCurrent day: %s\nCurrent time: %s\n", now.Weekday(), now.Format("03:04 PM"))

	b.WriteString("\nInstructions:\n")
	b.WriteString("- Reference previous conversation naturally\n")
	if p.Demographics.Ethnicity != "" {
		fmt.Fprintf(&b, "- Reference the user's cultural background (%s) and preferences naturally\n", p.Demographics.Ethnicity)
	}
	b.WriteString("- Use specific details from the API data when discussing places\n")
	b.WriteString("- Include hours, menu items, prices, and amenities when relevant\n")
	b.WriteString("- Be conversational and helpful\n")
	if p.Streak.Count > 0 {
		fmt.Fprintf(&b, "- Acknowledge their %d-day exploration streak\n", p.Streak.Count)
	}
	if p.Preferences.TravelStyle != "" {
		fmt.Fprintf(&b, "- Use their travel style (%s) to tailor recommendations\n", p.Preferences.TravelStyle)
	}
	b.WriteString("- If asked about specific dishes, use the specialty_dishes data\n")
	b.WriteString("- If asked about timing, reference the hours data\n")
	b.WriteString("- Keep responses concise but informative (under 200 words for TTS)")
	return b.String()
}

func profileBlock(p *models.UserProfile) string {
	var b strings.Builder
	name := p.Name
	if name == "" {
		name = p.UserID
	}
	fmt.Fprintf(&b, "\nUser Profile: %s\n", name)
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}
	line("Age", p.Demographics.Age)
	line("Gender", p.Demographics.Gender)
	line("Ethnicity", p.Demographics.Ethnicity)
	line("Vegetarian", strconv.FormatBool(p.Preferences.IsVegetarian))
	line("Preferred Cuisines", strings.Join(p.Preferences.Cuisines, ", "))
	line("Cultural Interests", strings.Join(p.Preferences.CulturalInterests, ", "))
	line("Travel Style", p.Preferences.TravelStyle)
	if p.Streak.Count > 0 {
		fmt.Fprintf(&b, "- Current Streak: %d days of %s\n", p.Streak.Count, p.Streak.Type)
	}
	return b.String()
}

// EntityContext renders the known facts of one entity, omitting absent ones.
func EntityContext(e *recommend.RawEntity) string {
	props := &e.Properties
	lines := []string{fmt.Sprintf("Entity: %s (%s)", e.Name, e.EntityID)}
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, "- "+label+": "+value)
		}
	}

	add("Description", props.Description)
	add("Address", props.Address)
	if props.BusinessRating.Truthy() {
		add("Rating", strconv.FormatFloat(props.BusinessRating.Value, 'f', -1, 64))
	}
	add("Phone", props.Phone)
	add("Website", props.Website)
	add("Menu", props.MenuURL)
	if len(props.Hours) > 0 {
		if hours, err := json.Marshal(props.Hours); err == nil {
			add("Hours", string(hours))
		}
	}
	add("Specialty Dishes", joinNames(props.SpecialtyDishes))
	if pr := props.PriceRange; pr != nil && pr.From.Truthy() && pr.To.Truthy() {
		add("Price Range", strings.TrimSpace(fmt.Sprintf("$%s-%s %s",
			strconv.FormatFloat(pr.From.Value, 'f', -1, 64),
			strconv.FormatFloat(pr.To.Value, 'f', -1, 64),
			pr.Currency)))
	}
	add("Good For", joinNames(props.GoodFor))
	add("Amenities", tagNames(e.Tags, "amenity"))
	add("Offerings", tagNames(e.Tags, "offerings"))
	return strings.Join(lines, "\n")
}

func joinNames(refs []recommend.NamedRef) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return strings.Join(names, ", ")
}

func tagNames(tags []recommend.Tag, typeFragment string) string {
	var names []string
	for _, t := range tags {
		if strings.Contains(t.Type, typeFragment) {
			names = append(names, t.Name)
		}
	}
	return strings.Join(names, ", ")
}
