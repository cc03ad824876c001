// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package events

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/gamification"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/websocket"
)

// Sink receives decoded events for delivery to connected clients.
type Sink interface {
	SendRaw(userID, messageType string, payload []byte)
	BroadcastJSON(messageType string, data interface{})
}

// pushRoutes maps bus topics to websocket message types.
var pushRoutes = map[string]string{
	TopicDisplay:            websocket.MessageTypeDisplay,
	gamification.TopicPoints: websocket.MessageTypePoints,
	gamification.TopicBadge:  websocket.MessageTypeBadge,
	gamification.TopicLevel:  websocket.MessageTypeLevel,
	gamification.TopicSpin:   websocket.MessageTypeSpin,
}

// RegisterPush forwards every routed topic to sink. Any points movement
// also tells all clients the leaderboard may have changed.
func RegisterPush(b *Bus, sink Sink) {
	for topic, messageType := range pushRoutes {
		notifyBoard := topic != TopicDisplay
		b.Handle("push-"+messageType, topic, func(msg *message.Message) error {
			userID := UserID(msg)
			if userID == "" {
				b.logger.Debug().Str("message_uuid", msg.UUID).Str("type", messageType).Msg("event without user dropped")
				return nil
			}
			sink.SendRaw(userID, messageType, msg.Payload)
			if notifyBoard {
				sink.BroadcastJSON(websocket.MessageTypeLeaderboard, nil)
			}
			return nil
		})
	}
}

var _ Sink = (*websocket.Hub)(nil)
