// Package thumbnail downloads and decodes thumbnails in the background and hands
// them back to the goroutine that owns the display.
//
// A Downloader is keyed by caller-chosen identities. Work runs on one worker
// goroutine in FIFO order. Each result is checked twice against the request
// registry: before the download starts (a cancelled identity is skipped) and
// again on the owning goroutine just before delivery (a reassigned identity
// drops the result). That second check is what keeps a slow download for a
// recycled slot from overwriting the slot's newer image.
package thumbnail
