//go:build !windows

package envstate

// broadcastChange is a no-op off Windows: POSIX shells read profile snippets
// at login and there is no environment-change message to post. New child
// processes of rigup still see applied mutations through the process overlay.
func broadcastChange() error {
	return nil
}
