// Package must contains functions that panic if an error is not nil.
package must

// OK panics if err is not nil.
// Use it for start-up failures that leave nothing to recover, such as a bad embedded migration or a server that
// cannot run.
func OK(err error) {
	if err != nil {
		panic(err)
	}
}
