package desktop

import "strings"

// MouseButton identifies a physical mouse button by its X11 button code.
type MouseButton int

const (
	ButtonLeft   MouseButton = 1
	ButtonMiddle MouseButton = 2
	ButtonRight  MouseButton = 3

	// Wheel events are buttons 4 and 5 in the X11 core protocol.
	buttonWheelUp   MouseButton = 4
	buttonWheelDown MouseButton = 5
)

// keyNames translates human-readable key names to X11 keysym names as
// understood by xdotool. Names not present map to themselves (lowercased),
// which covers plain characters and already-correct keysyms.
var keyNames = map[string]string{
	"enter":     "Return",
	"return":    "Return",
	"tab":       "Tab",
	"space":     "space",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"del":       "Delete",
	"insert":    "Insert",
	"escape":    "Escape",
	"esc":       "Escape",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"home":      "Home",
	"end":       "End",
	"pageup":    "Page_Up",
	"pagedown":  "Page_Down",
	"capslock":  "Caps_Lock",
	"numlock":   "Num_Lock",
	"printscreen": "Print",
	"menu":      "Menu",

	// Modifiers keep xdotool's lowercase aliases.
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"shift":   "shift",
	"meta":    "super",
	"super":   "super",
	"cmd":     "super",
	"win":     "super",

	"f1": "F1", "f2": "F2", "f3": "F3", "f4": "F4",
	"f5": "F5", "f6": "F6", "f7": "F7", "f8": "F8",
	"f9": "F9", "f10": "F10", "f11": "F11", "f12": "F12",
}

// mapKey resolves a human-readable key name. Unknown names fall back to the
// lowercased input unchanged.
func mapKey(name string) string {
	lower := strings.ToLower(name)
	if mapped, ok := keyNames[lower]; ok {
		return mapped
	}
	return lower
}

// mapMouseButton resolves a button name; anything unrecognized is treated
// as the left button.
func mapMouseButton(name string) MouseButton {
	switch strings.ToLower(name) {
	case "right":
		return ButtonRight
	case "middle":
		return ButtonMiddle
	default:
		return ButtonLeft
	}
}
