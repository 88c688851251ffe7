package sim

import (
	"log"
	"strings"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// NameMustBeValid panics if the given name does not follow the naming
// convention. A name is a list of dot-separated tokens, such as
// "Device.Tile[1][0].Reader". Tokens cannot be empty and names cannot contain
// white spaces.
func NameMustBeValid(name string) {
	if name == "" {
		log.Panic("name must not be empty")
	}

	if strings.ContainsAny(name, " \t\n") {
		log.Panicf("name %q must not contain white spaces", name)
	}

	for _, token := range strings.Split(name, ".") {
		if token == "" {
			log.Panicf("name %q contains an empty token", name)
		}
	}
}
