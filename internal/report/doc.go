// Package report renders a completed scan for humans and exports the full
// finding list for the downstream fixer. The console report caps each
// category to keep output bounded; the CSV export is always complete.
package report
