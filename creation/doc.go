// Package creation reconciles broker entities with their descriptions.
//
// Each creator works against one namespace and follows the same steps: build
// the target description, check existence through an ExistenceCache, create
// the entity when it is missing, otherwise diff and update the mutable
// fields. Failures are classified through the api error helpers:
//
//   - an entity that already exists is a success
//   - a timeout is verified by checking existence again
//   - transient failures are logged and left for the next pass
//   - anything else is logged at fatal level and returned
//
// SectionCreator applies this to a whole meta.Section.
package creation
