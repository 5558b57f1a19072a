//go:build !darwin

package common

import "log"

// EnableExtendedDynamicRange only has an effect on macOS. Elsewhere the swap chain color space decides.
func (w *Window) EnableExtendedDynamicRange() {
	log.Println("Extended dynamic range layer setup is only needed on macOS, skipping")
}
