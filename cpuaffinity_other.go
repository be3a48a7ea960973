//go:build !linux

package yolostream

import "errors"

// SetCPUAffinity is only supported on Linux
func SetCPUAffinity(cores []int) error {
	return errors.New("CPU affinity is only supported on linux")
}
