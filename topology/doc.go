// Package topology resolves what an endpoint needs on the broker.
//
// The Manager answers five questions, each with a meta.Section: what to
// create at startup, where to receive, where to publish an event, where to
// send a command, and which subscriptions deliver an event type. Every
// answer is recomputed from the partitioning and sanitization strategies on
// each call, except for subscriptions, which are cached per event type so
// the same section can later be handed back when unsubscribing.
//
// Subscriptions are named "<endpoint>.<qualified event name>". The name that
// older deployments derived from the short event name is kept in the
// subscription metadata so it can be found and migrated.
package topology
