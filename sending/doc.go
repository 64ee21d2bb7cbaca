// Package sending routes outgoing messages to broker entities.
//
// A Router resolves the dispatch options to entities, checks the batch
// against the maximum message size, and sends to every active namespace in
// parallel. Senders come from a LifecycleManager that keeps one live sender
// per path and namespace. Throttled sends are retried with RetryOnThrottle,
// which builds new broker messages for every attempt.
package sending
