//go:build !linux

package audiohost

import "fmt"

func newALSAHost(cfg Config) (Host, error) {
	return nil, fmt.Errorf("audiohost: ALSA backend is only available on linux")
}
