// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package assistant is the conversational guide.
//
// A chat turn appends the user's message to the stored conversation,
// builds one prompt from the profile, the previous turns, the last
// upstream snapshot and the current day and time, then streams an
// OpenAI-compatible chat completion. Tokens are accumulated from
// choices[0].delta.content of each "data:" line until "[DONE]"; lines that
// do not decode are skipped. The finished reply is appended to the
// conversation and can be forwarded to a speech synthesizer.
//
// Both outbound clients sit behind circuit breakers.
package assistant
