// Package domain contains the core entities of the gallery: the photos returned
// by the listing API and the notification raised when polling finds new ones.
// It is independent of any specific infrastructure or delivery mechanism.
package domain
