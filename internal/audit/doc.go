// Package audit translates one audio file's probed metadata into findings
// against the device rule set. It is the per-file half of a scan; the
// structural half lives in package structure.
package audit
