// Package drive inspects the block device backing a scan root: filesystem
// type, allocation unit size, and partition scheme. Everything here is
// advisory; the probe degrades to warnings when the platform or permissions
// keep it from answering.
package drive
