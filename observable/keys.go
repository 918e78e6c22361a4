package observable

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// symbol is a reserved property name. User keys are strings, ints or
// arbitrary map keys, so a distinct type can never collide with them.
type symbol int64

func newSymbol(name string) symbol {
	s := symbol(xxhash.Sum64String(name) & 0x7fffffffffffffff)
	symbolNames[s] = name
	return s
}

var symbolNames = map[symbol]string{}

var (
	symLength  = newSymbol("length")
	symSize    = newSymbol("size")
	symIterate = newSymbol("iterate")
	symKeys    = newSymbol("keys")
)

func (s symbol) String() string {
	return "@" + symbolNames[s]
}

// PropertyKey addresses one observable slot of one container.
type PropertyKey struct {
	ID   uint64
	Prop any
}

func (k PropertyKey) String() string {
	return fmt.Sprintf("%d:%v", k.ID, k.Prop)
}

func (k PropertyKey) reserved() bool {
	_, ok := k.Prop.(symbol)
	return ok
}
