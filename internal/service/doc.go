// Package service contains application services that orchestrate domain
// logic and persistence for categories and flashcards.
package service
