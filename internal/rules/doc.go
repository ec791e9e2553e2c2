// Package rules holds the device constraint table for the 2012 Volvo XC70
// base stereo head unit.
//
// A Set is pure configuration: counts, length limits, extension sets, and
// audio encoding bounds. Default() returns the published device limits;
// tests and config overrides adjust individual fields before handing the Set
// to the scanner. A Set is never mutated once a scan starts.
package rules
