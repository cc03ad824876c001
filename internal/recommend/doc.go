// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package recommend turns upstream taste-graph results into personalised,
// re-rankable result lists.
//
// # Components
//
//   - Scorer: additive pairwise similarity between two formatted entities
//     (type, category group, cuisine group, name tokens, distance).
//   - AffinityModel: a per-user feature-weight vector nudged by every like
//     and unlike.
//   - HistoryCollector: explicit likes plus names mentioned in conversation,
//     assembled from persisted state only.
//   - Orchestrator: picks the pipeline branch for a mood/intent, displays raw
//     results at once, diversifies them in the background and re-ranks the
//     cached list synchronously on every like.
//
// The re-ranker and the MMR diversifier live in the reranking sub-package
// and plug in through the Reorderer and Diversifier interfaces.
//
// # Concurrency
//
// Each (user, context) session has its own mutex and a generation counter.
// A background diversification result is applied only when the session's
// generation still equals the one captured when the job started, so a newer
// query or like always wins over a stale result.
package recommend
