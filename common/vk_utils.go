package common

import (
	"bytes"
	"encoding/binary"
	"log"
	"slices"
)

// General helper functions for comparisons and conversions.

// IsSubset reports whether every element of a is contained in b. This is mainly used to check for extension and
// layer support during the initialization process.
func IsSubset(a []string, b []string) bool {
	for _, want := range a {
		if !slices.Contains(b, want) {
			return false
		}
	}
	return true
}

// RawBytes writes a fixed size value (or slice of them) as its little endian byte representation. This is
// mainly used to be able to put data into vk.Memcopy.
func RawBytes(p any) []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, p); err != nil {
		log.Panicf("binary.Write failed for %T: %v", p, err)
	}
	return buf.Bytes()
}

// TerminatedStr ensures the given string is \x00 terminated as vulkan expects this in certain structs.
func TerminatedStr(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

// TerminatedStrs terminates every string of strs in place.
func TerminatedStrs(strs []string) []string {
	for i := range strs {
		strs[i] = TerminatedStr(strs[i])
	}
	return strs
}
