package common

// Virtual key codes shared by the window and terminal hosts.
// These values match GLFW key codes which use ASCII values for printable keys,
// so an upper-cased terminal rune maps onto the same code.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87  // W key (ASCII)
	KeyQ     = 81  // Q key (ASCII)
	KeyP     = 80  // P key (ASCII)
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)

	Key1 = 49 // 1 key (ASCII)
	Key9 = 57 // 9 key (ASCII)
)

// DigitIndex maps the keys 1 through 9 onto the zero-based indices 0 through 8.
//
// Parameters:
//   - keyCode: the virtual key code
//
// Returns:
//   - int: the zero-based index
//   - bool: false if keyCode is not one of the keys 1 through 9
func DigitIndex(keyCode uint32) (int, bool) {
	if keyCode < Key1 || keyCode > Key9 {
		return 0, false
	}
	return int(keyCode - Key1), true
}

// RuneKeyCode converts a printable terminal rune into its virtual key code.
// Lower-case letters map onto their upper-case codes; other runes map onto their code point.
func RuneKeyCode(r rune) uint32 {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	return uint32(r)
}
