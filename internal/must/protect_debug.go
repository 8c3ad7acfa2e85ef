//go:build debugbuild

package must

// Protect in a debug build is a plain call: a violated invariant
// aborts the process with a full stack right where it fired.
func Protect(fn func(), onViolation func(msg string)) {
	fn()
}
