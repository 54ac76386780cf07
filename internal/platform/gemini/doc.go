// Package gemini implements the generation.Generator interface against
// Google's Gemini API.
package gemini
