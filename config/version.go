package config

import (
	"fmt"
)

func GetVersion() []byte {
	return []byte{0x00, 0x03, 0x01}
}

func GetVersionString() string {
	return FormatVersion(GetVersion())
}

// FormatVersion renders a major, minor, patch version triple.
func FormatVersion(version []byte) string {
	if len(version) != 3 {
		return "unknown"
	}
	return fmt.Sprintf("%d.%d.%d", version[0], version[1], version[2])
}
