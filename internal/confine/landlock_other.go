//go:build !linux

package confine

// Supported reports whether confinement is implemented on this platform.
func Supported() bool { return false }

// Restrict validates its arguments and is otherwise a no-op on non-Linux.
func Restrict(root string, rw []string) error {
	_, err := Plan(root, rw)
	return err
}
