package ring_test

import (
	"fmt"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/ring"
)

func Example() {
	rb, err := ring.New(7)
	if err != nil {
		panic(err)
	}
	defer rb.Release()

	n, _ := rb.Write([]byte("hello, ring"))
	fmt.Println(rb.Cap(), n)

	_, err = rb.Write([]byte("!"))
	fmt.Println(api.IsWouldBlock(err))

	out := make([]byte, 16)
	n, _ = rb.Read(out)
	fmt.Printf("%q\n", out[:n])
	// Output:
	// 8 8
	// true
	// "hello, r"
}
