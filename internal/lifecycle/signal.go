package lifecycle

import "strings"

// Signal is a host lifecycle event.
type Signal int

const (
	SignalUnknown Signal = iota
	BootCompleted
	OwnPackageReplaced
	OtherPackageReplaced
)

// Host action names as delivered by Android broadcasts.
const (
	ActionBootCompleted     = "android.intent.action.BOOT_COMPLETED"
	ActionMyPackageReplaced = "android.intent.action.MY_PACKAGE_REPLACED"
	ActionPackageReplaced   = "android.intent.action.PACKAGE_REPLACED"
)

// ParseSignal maps a host action string to a Signal. Unrecognized input is SignalUnknown.
func ParseSignal(action string) Signal {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case strings.ToLower(ActionBootCompleted), "boot_completed", "boot":
		return BootCompleted
	case strings.ToLower(ActionMyPackageReplaced), "my_package_replaced", "own_package_replaced":
		return OwnPackageReplaced
	case strings.ToLower(ActionPackageReplaced), "package_replaced", "other_package_replaced":
		return OtherPackageReplaced
	default:
		return SignalUnknown
	}
}

// Known reports whether s is one of the handled lifecycle signals.
func (s Signal) Known() bool {
	switch s {
	case BootCompleted, OwnPackageReplaced, OtherPackageReplaced:
		return true
	default:
		return false
	}
}

func (s Signal) String() string {
	switch s {
	case BootCompleted:
		return "boot_completed"
	case OwnPackageReplaced:
		return "own_package_replaced"
	case OtherPackageReplaced:
		return "other_package_replaced"
	default:
		return "unknown"
	}
}
