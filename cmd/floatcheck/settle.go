package main

import (
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
	"github.com/z32nissan/CSGOFloat-Extension/internal/nats"
	"github.com/z32nissan/CSGOFloat-Extension/internal/websocket"
	"github.com/z32nissan/CSGOFloat-Extension/internal/worker"
)

// Publisher sends settled job reports
type Publisher interface {
	PublishSettled(msg *nats.SettledMessage) error
}

// settleHook fans each outcome out to websocket clients and, when a
// publisher is set, to NATS
func settleHook(hub *websocket.Hub, publisher *nats.Client) func(worker.Outcome) {
	var pub Publisher
	if publisher != nil {
		pub = publisher
	}
	return fanOut(hub, pub)
}

func fanOut(hub *websocket.Hub, publisher Publisher) func(worker.Outcome) {
	return func(outcome worker.Outcome) {
		if hub != nil {
			websocket.BroadcastFloatUpdate(hub, outcome)
		}
		if publisher == nil {
			return
		}
		if err := publisher.PublishSettled(settledMessage(outcome)); err != nil {
			logger.WithJobID(outcome.Job.ID).Warn().Err(err).Msg("Failed to publish settled job")
		}
	}
}

func settledMessage(outcome worker.Outcome) *nats.SettledMessage {
	msg := &nats.SettledMessage{
		JobID:     outcome.Job.ID,
		ListingID: outcome.Job.ListingID,
		Status:    string(outcome.Status),
		Error:     outcome.Error,
	}
	if outcome.ItemInfo != nil {
		msg.FloatValue = outcome.ItemInfo.FloatValue
		msg.PaintSeed = outcome.ItemInfo.PaintSeed
	}
	return msg
}
