package domainpool

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the runtime's numeric goroutine id from the header
// line of runtime.Stack's output ("goroutine 123 [running]: ..."). There is
// no library in the retrieval pack for goroutine-local storage, and the
// standard library exposes no supported way to ask "which goroutine am I,"
// so this is the stdlib fallback used to back Self()'s ambient "current
// worker" lookup.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}
