// Package poll checks the photo listing in the background and announces
// results the user has not seen yet.
//
// A Poller compares the id of the newest item with the id it stored last
// time. Only a different id produces an events.NewResultsEvent. The
// "alarm" (periodic polling) is persisted in the preference store so
// Restore can re-arm it when the server starts.
package poll
