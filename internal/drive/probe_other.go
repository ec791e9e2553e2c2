//go:build !linux

package drive

import "errors"

func probeDevice(string) (deviceInfo, error) {
	return deviceInfo{}, errors.New("only supported on linux")
}
