// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package eventprocessor carries domain events between newsrank components
using Watermill.

# Backends

Two message transports are supported and selected by events.backend:

  - gochannel: an in-process Watermill GoChannel. This is the default and
    needs no external infrastructure. Events are lost on restart.
  - nats: NATS JetStream through watermill-nats. The FEEDBACK stream is
    created (or updated) on startup with subjects "feedback.>", and
    subscribers bind to it with a durable queue group so several newsrank
    instances share the work.

# Events

FeedbackRecorded is published on the "feedback.recorded" topic after a
like or dislike has been stored and the user's interests were updated.
Payloads are JSON encoded with goccy/go-json.

# Router

Router wraps message.Router with Recoverer and Retry middleware. Handlers
are registered once and the router is rebuilt on every Serve call, so the
supervisor can restart it after a failure. Router implements suture.Service.

The built-in consumer is "cache-invalidation": it deletes every cached
recommendation page for the user named in a FeedbackRecorded event so the
next request recomputes with the new interests.

# Usage

	bus, err := eventprocessor.NewBus(ctx, eventprocessor.FromAppConfig(cfg.Events), logger)
	if err != nil {
	    return err
	}
	defer bus.Close()

	pub := eventprocessor.NewPublisher(bus.Publisher())
	router := eventprocessor.NewRouter(eventprocessor.FromAppConfig(cfg.Events), logger)
	router.AddConsumerHandler("cache-invalidation", eventprocessor.TopicFeedbackRecorded,
	    bus.Subscriber(), eventprocessor.NewCacheInvalidationHandler(recCache).Handle)
	tree.AddMessagingService(router)
*/
package eventprocessor
