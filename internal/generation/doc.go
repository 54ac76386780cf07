// Package generation defines the boundary between the application core and
// external language model services used to draft flashcards.
package generation
