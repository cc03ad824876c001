// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/store"
)

func sseChunk(token string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`+"\n\n", token)
}

func TestReadStream(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{"tokens then done", sseChunk("Hello") + sseChunk(", world") + "data: [DONE]\n", "Hello, world"},
		{"stops at done", sseChunk("a") + "data: [DONE]\n" + sseChunk("b"), "a"},
		{"eof without done", sseChunk("x") + sseChunk("y"), "xy"},
		{"malformed lines skipped", sseChunk("a") + "data: {not json\n" + ": comment\n" + "event: ping\n" + sseChunk("b"), "ab"},
		{"empty delta skipped", `data: {"choices":[{"delta":{}}]}` + "\n" + `data: {"choices":[]}` + "\n" + sseChunk("z"), "z"},
		{"crlf lines", "data: {\"choices\":[{\"delta\":{\"content\":\"r\"}}]}\r\ndata: [DONE]\r\n", "r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			got, err := ReadStream(strings.NewReader(tt.stream), func(tok string) { tokens = append(tokens, tok) })
			if err != nil {
				t.Fatalf("ReadStream() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadStream() = %q, want %q", got, tt.want)
			}
			if strings.Join(tokens, "") != tt.want {
				t.Errorf("tokens = %q", tokens)
			}
		})
	}
}

func newStreamServer(t *testing.T, handler http.HandlerFunc) *StreamClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewStreamClient(&config.AssistantConfig{BaseURL: srv.URL + "/v1/", APIKey: "k", Model: "m", Timeout: time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestStreamClient_Complete(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if !req.Stream || req.Model != "m" || len(req.Messages) != 1 {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sseChunk("Namaste")+sseChunk("!")+"data: [DONE]\n\n")
	})

	got, err := c.Complete(context.Background(), []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}}, nil)
	if err != nil || got != "Namaste!" {
		t.Errorf("Complete() = %q, %v", got, err)
	}
}

func TestStreamClient_ProviderError(t *testing.T) {
	c := newStreamServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	_, err := c.Complete(context.Background(), nil, nil)
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Status != http.StatusTooManyRequests || pe.Message != "quota exceeded" {
		t.Errorf("error = %v", err)
	}
}

func TestNewStreamClient_RequiresURL(t *testing.T) {
	if _, err := NewStreamClient(&config.AssistantConfig{}, zerolog.Nop()); err == nil {
		t.Error("expected error")
	}
}

func TestBuildPrompt(t *testing.T) {
	profile := &models.UserProfile{
		UserID: "u1",
		Name:   "Asha",
		Preferences: models.Preferences{
			Cuisines:    []string{"South Indian", "Thai"},
			TravelStyle: "authentic",
		},
		Demographics: models.Demographics{Ethnicity: "Tamil"},
		Location:     models.Location{Current: "Toronto"},
		Streak:       models.Streak{Type: "food", Count: 3},
	}
	entity := recommend.RawEntity{
		EntityID: "e1",
		Name:     "Saravanaa Bhavan",
		Properties: recommend.Properties{
			Address:         "123 Main St",
			BusinessRating:  recommend.Some(4.5),
			SpecialtyDishes: []recommend.NamedRef{{Name: "Dosa"}, {Name: "Idli"}},
			PriceRange:      &recommend.PriceRange{From: recommend.Some(10), To: recommend.Some(25), Currency: "CAD"},
		},
		Tags: []recommend.Tag{{Type: "urn:tag:amenity:place", Name: "Wifi"}},
	}
	now := time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC) // Saturday

	got := BuildPrompt(&PromptInput{
		Profile:  profile,
		Message:  "Where can I get dosa?",
		History:  []models.ChatMessage{{Role: "user", Content: "hello"}, {Role: "assistant", Content: "hi there"}},
		Entities: []recommend.RawEntity{entity},
		Now:      now,
	})

	for _, want := range []string{
		"You are Sahayak, a friendly cultural guide for new migrants to Toronto.",
		"User Profile: Asha",
		"- Preferred Cuisines: South Indian, Thai",
		"User Query: Where can I get dosa?",
		"user: hello\nassistant: hi there",
		"Entity: Saravanaa Bhavan (e1)",
		"- Rating: 4.5",
		"- Specialty Dishes: Dosa, Idli",
		"- Price Range: $10-25 CAD",
		"- Amenities: Wifi",
		"Current day: Saturday",
		"Current time: 02:30 PM",
		"Acknowledge their 3-day exploration streak",
		"under 200 words for TTS",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "- Phone:") {
		t.Error("absent fields must be omitted")
	}
}

func TestBuildPrompt_NoProfile(t *testing.T) {
	got := BuildPrompt(&PromptInput{Message: "hi", City: "Mumbai"})
	if !strings.Contains(got, "new migrants to Mumbai.") {
		t.Errorf("prompt = %s", got)
	}
	got = BuildPrompt(&PromptInput{Message: "hi"})
	if !strings.Contains(got, "new migrants to their city.") {
		t.Errorf("prompt = %s", got)
	}
}

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, messages []models.ChatMessage, onToken TokenFunc) (string, error) {
	f.prompts = append(f.prompts, messages[0].Content)
	if f.err != nil {
		return "", f.err
	}
	if onToken != nil {
		for _, w := range strings.SplitAfter(f.reply, " ") {
			onToken(w)
		}
	}
	return f.reply, nil
}

type fakeSynth struct {
	audio []byte
	err   error
	text  string
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.text = text
	return f.audio, f.err
}

type fakeProfiles struct{ profile *models.UserProfile }

func (f fakeProfiles) GetProfile(context.Context, string) (*models.UserProfile, error) {
	if f.profile == nil {
		return nil, models.ErrProfileNotFound
	}
	return f.profile, nil
}

func newChatService(t *testing.T, c Completer, cfg ServiceConfig) (*Service, store.Store) {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewService(c, st, fakeProfiles{}, cfg, zerolog.Nop()), st
}

func TestService_PersistsConversation(t *testing.T) {
	comp := &fakeCompleter{reply: "Try the dosa place."}
	s, _ := newChatService(t, comp, ServiceConfig{HistoryTurns: 2})
	ctx := context.Background()

	for i := range 3 {
		if _, err := s.Chat(ctx, "u1", fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
	}

	history, err := s.History(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 6 {
		t.Fatalf("history length = %d, want 6", len(history))
	}
	if history[4].Role != models.RoleUser || history[4].Content != "question 2" || history[5].Role != models.RoleAssistant {
		t.Errorf("last turns = %+v", history[4:])
	}

	// The third prompt carries only the two turns before it.
	last := comp.prompts[2]
	if strings.Contains(last, "user: question 0") || !strings.Contains(last, "user: question 1\nassistant: Try the dosa place.") {
		t.Errorf("prompt history window wrong:\n%s", last)
	}

	if err := s.ClearHistory(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if h, _ := s.History(ctx, "u1"); len(h) != 0 {
		t.Errorf("history after clear = %d", len(h))
	}
}

func TestService_UsesSnapshot(t *testing.T) {
	comp := &fakeCompleter{reply: "ok"}
	s, st := newChatService(t, comp, ServiceConfig{})
	ctx := context.Background()
	if err := st.Set(ctx, "u1", store.KeyFullAPIResponses, []recommend.RawEntity{{EntityID: "e9", Name: "Kensington Market"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Chat(ctx, "u1", "what is nearby?"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(comp.prompts[0], "Entity: Kensington Market (e9)") {
		t.Errorf("snapshot not in prompt")
	}
}

func TestService_FailureKeepsUserTurn(t *testing.T) {
	comp := &fakeCompleter{err: errors.New("provider down")}
	s, _ := newChatService(t, comp, ServiceConfig{})
	ctx := context.Background()

	if _, err := s.Chat(ctx, "u1", "hello"); err == nil {
		t.Fatal("expected error")
	}
	history, _ := s.History(ctx, "u1")
	if len(history) != 1 || history[0].Role != models.RoleUser {
		t.Errorf("history = %+v, want only the user turn", history)
	}
}

func TestService_Validation(t *testing.T) {
	s, _ := newChatService(t, &fakeCompleter{reply: "x"}, ServiceConfig{})
	ctx := context.Background()
	if _, err := s.Chat(ctx, "u1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank message error = %v", err)
	}
	if _, err := s.Chat(ctx, "", "hi"); !errors.Is(err, recommend.ErrInvalidRequest) {
		t.Errorf("missing user error = %v", err)
	}

	empty, _ := newChatService(t, &fakeCompleter{reply: "  "}, ServiceConfig{})
	if _, err := empty.Chat(ctx, "u1", "hi"); !errors.Is(err, ErrEmptyReply) {
		t.Errorf("empty reply error = %v", err)
	}
}

func TestService_RespondStreamsAndSpeaks(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3")}
	s, _ := newChatService(t, &fakeCompleter{reply: "Visit the temple today"}, ServiceConfig{Speech: synth})

	var streamed strings.Builder
	reply, err := s.Respond(context.Background(), "u1", "plan?", Options{
		OnToken: func(tok string) { streamed.WriteString(tok) },
		Speak:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if streamed.String() != "Visit the temple today" || reply.Text != streamed.String() {
		t.Errorf("streamed %q, reply %q", streamed.String(), reply.Text)
	}
	if string(reply.Audio) != "mp3" || synth.text != reply.Text {
		t.Errorf("audio = %q, synthesized %q", reply.Audio, synth.text)
	}

	synth.err = errors.New("tts down")
	reply, err = s.Respond(context.Background(), "u1", "again?", Options{Speak: true})
	if err != nil || reply.Audio != nil {
		t.Errorf("speech failure should degrade to text: %v, %v", reply, err)
	}
}

func TestSpeechClient_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" || r.URL.Query().Get("output_format") != "mp3_44100_128" {
			t.Errorf("url = %s", r.URL.String())
		}
		if r.Header.Get("xi-api-key") != "secret" {
			t.Errorf("api key header = %q", r.Header.Get("xi-api-key"))
		}
		var req speechRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Text {
		case "silence":
			w.WriteHeader(http.StatusOK)
		case "fail":
			http.Error(w, "bad voice", http.StatusBadRequest)
		default:
			if req.ModelID != "eleven_multilingual_v2" || req.VoiceSettings.Stability != 0.75 {
				t.Errorf("request = %+v", req)
			}
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3audio"))
		}
	}))
	defer srv.Close()

	c, err := NewSpeechClient(&config.SpeechConfig{
		BaseURL: srv.URL + "/v1", APIKey: "secret", VoiceID: "voice-1",
		ModelID: "eleven_multilingual_v2", OutputFormat: "mp3_44100_128",
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	audio, err := c.Synthesize(ctx, "hello")
	if err != nil || string(audio) != "ID3audio" {
		t.Errorf("Synthesize() = %q, %v", audio, err)
	}
	if _, err := c.Synthesize(ctx, " "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("blank text error = %v", err)
	}
	if _, err := c.Synthesize(ctx, "silence"); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("empty audio error = %v", err)
	}
	var pe *ProviderError
	if _, err := c.Synthesize(ctx, "fail"); !errors.As(err, &pe) || pe.Status != http.StatusBadRequest {
		t.Errorf("provider error = %v", err)
	}
}
