// Package store defines the persistence interfaces for the application's
// entities along with the shared transaction helper and sentinel errors.
// Implementations live under internal/platform.
package store
