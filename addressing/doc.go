// Package addressing maps logical names onto broker paths and namespaces.
//
// It provides four small strategies, each selected through settings and
// replaceable by the host:
//   - Validator: decides whether a path is acceptable for an entity kind
//   - Sanitizer: turns a logical name into an acceptable path
//   - Individualizer: makes an endpoint name unique per running instance
//   - Partitioner: picks the namespaces owning a scope for an intent
package addressing
