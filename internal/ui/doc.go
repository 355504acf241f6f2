// Package ui styles terminal output with lipgloss.
//
// [Styles] is the shared [Palette]. Its methods prefix status glyphs (✓, ✗, ⚠) and render
// [tasks.ProgressUpdate] values as they stream from the shuffle engine.
package ui
