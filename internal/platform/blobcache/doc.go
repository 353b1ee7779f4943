// Package blobcache keeps downloaded thumbnail bytes in a gocloud.dev/blob
// bucket so a restarted server, or a slot recycled onto a photo seen before,
// does not hit the network again.
//
// Any bucket URL supported by the linked drivers works: mem:// for tests and
// single-process use, file:///path for a local disk cache.
package blobcache
