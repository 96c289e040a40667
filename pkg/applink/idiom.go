package applink

import (
	"fmt"
	"strings"
)

// Idiom is the device form factor used to pick platform-specific metadata.
type Idiom int

const (
	Unspecified Idiom = iota
	Phone
	Pad
)

// Platform keys in App Link metadata.
const (
	IOSKey     = "ios"
	IPhoneKey  = "iphone"
	IPadKey    = "ipad"
	AndroidKey = "android"
	WebKey     = "web"
)

// Field returns the metadata key preferred for this idiom, or "" when there is none.
func (i Idiom) Field() string {
	switch i {
	case Phone:
		return IPhoneKey
	case Pad:
		return IPadKey
	}
	return ""
}

// PlatformKeys returns the keys to read targets from, in priority order.
func (i Idiom) PlatformKeys() []string {
	if f := i.Field(); f != "" {
		return []string{f, IOSKey}
	}
	return []string{IOSKey}
}

func (i Idiom) String() string {
	switch i {
	case Phone:
		return "phone"
	case Pad:
		return "pad"
	}
	return "unspecified"
}

func ParseIdiom(s string) (Idiom, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "phone", "iphone":
		return Phone, nil
	case "pad", "ipad", "tablet":
		return Pad, nil
	case "", "unspecified", "none":
		return Unspecified, nil
	}
	return Unspecified, fmt.Errorf("unknown device idiom %q", s)
}
