//go:build frameloop_debug

package tracker

const debugging = true

func assert(cond bool, message string) {
	if !cond {
		panic(message)
	}
}
