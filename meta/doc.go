// Package meta holds the model shared by every part of roost: namespaces,
// entities, subscriptions and the sections returned by topology resolution.
//
// Sections are plain values. Subscriptions point at their topic through an
// EntityKey stored in a relationship edge, and the topics themselves are kept
// in a flat list on the section, so a section never contains cycles and can
// be copied, cached or encoded as JSON freely.
package meta
