// Package history persists a summary of every completed scan so earlier
// verdicts can be compared after a drive has been reorganized.
package history
