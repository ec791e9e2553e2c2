// Command vusb verifies that a USB music drive complies with the limits of
// the 2012 Volvo XC70 base stereo and exports a defect list for the
// companion fixer tooling.
package main
