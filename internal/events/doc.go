// Package events carries domain events from the services that commit state
// to the components that react to it, such as cache invalidation.
//
// Services emit an Event after their unit of work commits. Handlers are
// registered on an emitter, optionally filtered by event Type.
package events
