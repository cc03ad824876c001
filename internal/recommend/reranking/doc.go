// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package reranking implements the post-processing steps applied to upstream
// place recommendations.
//
// # Overview
//
// Two independent rerankers operate on an already-fetched candidate list:
//
//	upstream -> dedupe -> Reorderer          (synchronous, on every like)
//	                   -> Diversify via MMR  (background, out of process)
//
// # Reorderer
//
// The Reorderer pins liked places to the front, in their input order, and
// sorts the remainder by the highest similarity to any liked place plus a
// small uniform jitter that breaks ties. The output is capped (15 by default).
//
// # Maximal Marginal Relevance
//
// MMR selects items that are both relevant and dissimilar to what has already
// been selected:
//
//	MMR = argmax[lambda * rel(i) - (1-lambda) * max_sim(i, selected)]
//
// Selection runs in two phases. The first nHigh picks use the caller's lambda
// (top-affinity slots); the remaining picks use lambda 0.3 to favour variety.
//
// Relevance blends the cosine similarity of term-frequency vectors built from
// the user's preference text and each place's feature text with either a
// keyword fallback score or, when enough interactions exist, a score learned
// from the words of liked and unliked places.
//
// # Thread Safety
//
// MMR and the scoring helpers are stateless. The Reorderer guards its random
// source and is safe for concurrent use.
//
// # See Also
//
//   - internal/recommend: Scorer, Entity and the orchestrator
//   - internal/diversify: the diversification service built on this package
//   - Carbonell & Goldstein (1998): "The Use of MMR" SIGIR paper
package reranking
