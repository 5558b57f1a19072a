//go:build darwin

package common

import (
	"log"

	"github.com/ebitengine/purego/objc"
)

var (
	selContentView   = objc.RegisterName("contentView")
	selSubviews      = objc.RegisterName("subviews")
	selCount         = objc.RegisterName("count")
	selObjectAtIndex = objc.RegisterName("objectAtIndex:")
	selLayer         = objc.RegisterName("layer")
	selIsKindOfClass = objc.RegisterName("isKindOfClass:")
	selSetWantsEDR   = objc.RegisterName("setWantsExtendedDynamicRangeContent:")
)

// EnableExtendedDynamicRange lets the CAMetalLayer backing the window's Vulkan surface show values above 1.0.
// It has to run after the surface exists. A window without a CAMetalLayer is a fatal error.
func (w *Window) EnableExtendedDynamicRange() {
	info, err := w.Win.GetWMInfo()
	if err != nil {
		log.Panicf("Failed to read window manager info: %v", err)
	}
	nsWindow := objc.ID(uintptr(info.GetCocoaInfo().Window))
	layer := findMetalLayer(nsWindow)
	if layer == 0 {
		log.Panicf("Window has no CAMetalLayer, can not enable extended dynamic range")
	}
	layer.Send(selSetWantsEDR, true)
	log.Println("Enabled extended dynamic range content on CAMetalLayer")
}

// findMetalLayer checks the content view and then its subviews, newest first. SDL puts its metal view there.
func findMetalLayer(nsWindow objc.ID) objc.ID {
	metalLayerClass := objc.GetClass("CAMetalLayer")
	if nsWindow == 0 || metalLayerClass == 0 {
		return 0
	}
	isMetal := func(layer objc.ID) bool {
		return layer != 0 && objc.Send[bool](layer, selIsKindOfClass, metalLayerClass)
	}

	view := nsWindow.Send(selContentView)
	if layer := view.Send(selLayer); isMetal(layer) {
		return layer
	}
	subviews := view.Send(selSubviews)
	for i := objc.Send[uint64](subviews, selCount); i > 0; i-- {
		if layer := subviews.Send(selObjectAtIndex, i-1).Send(selLayer); isMetal(layer) {
			return layer
		}
	}
	return 0
}
