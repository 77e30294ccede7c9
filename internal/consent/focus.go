package consent

// Control identifies a focusable element of the banner or the dialog.
type Control string

const (
	ControlPolicyLink      Control = "cookie-policy-link"
	ControlAccept          Control = "cookie-accept"
	ControlReject          Control = "cookie-reject"
	ControlPreferences     Control = "cookie-preferences"
	ControlSettingsLink    Control = "cookie-settings-link"
	ControlAnalyticsToggle Control = "analytics-toggle"
	ControlSave            Control = "cookie-modal-save"
	ControlCancel          Control = "cookie-modal-cancel"
)

// Focus order of each trap.
var (
	BannerControls = []Control{ControlPolicyLink, ControlAccept, ControlReject, ControlPreferences}
	DialogControls = []Control{ControlAnalyticsToggle, ControlSave, ControlCancel}
)

type Key int

const (
	KeyTab Key = iota
	KeyShiftTab
	KeyEscape
	KeyEnter
	KeySpace
)

// cycle moves focus one step through controls, wrapping at both ends. Focus
// outside the set enters it at the first or last control.
func cycle(controls []Control, current Control, backward bool) Control {
	if len(controls) == 0 {
		return current
	}
	idx := -1
	for i, c := range controls {
		if c == current {
			idx = i
			break
		}
	}
	n := len(controls)
	switch {
	case idx < 0 && backward:
		return controls[n-1]
	case idx < 0:
		return controls[0]
	case backward:
		return controls[(idx-1+n)%n]
	default:
		return controls[(idx+1)%n]
	}
}

func contains(controls []Control, c Control) bool {
	for _, x := range controls {
		if x == c {
			return true
		}
	}
	return false
}
