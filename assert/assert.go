package assert

import "github.com/oomph-ac/locomotion/oerror"

// IsTrue panics with a formatted error if ok is false. It is reserved for programmer errors, never for
// conditions a tick can run into at runtime.
func IsTrue(ok bool, message string, args ...any) {
	if !ok {
		panic(oerror.New(message, args...))
	}
}
