// Package fivehundredpx implements the photo listing client: it builds the
// popular and search listing URLs, parses the fixed JSON listing shape into
// domain.GalleryItem values, and downloads raw image bytes for the thumbnail
// downloader.
package fivehundredpx
