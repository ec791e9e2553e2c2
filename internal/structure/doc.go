// Package structure walks a drive tree once and checks everything that does
// not require opening a file: folder and file counts, nesting depth, path
// and filename lengths, unsafe characters, and container extensions.
//
// The walk is sequential; depth and count bookkeeping depend on visiting
// parents before children. Its output feeds the audio audit phase: only
// files classified here as supported audio are probed later.
package structure
