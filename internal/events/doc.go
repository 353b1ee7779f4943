// Package events carries "new results" announcements from the background
// poller to whoever should tell the user about them.
//
// Delivery is an ordered broadcast: handlers run in registration order and
// any of them may consume the event by returning ErrConsumed. The usual
// wiring registers a VisibilityGate first, then the notifiers, so that a
// visible gallery silently absorbs the event and notifications only go out
// while nobody is looking.
package events
