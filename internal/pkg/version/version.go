package version

import "fmt"

const MAJOR uint = 0
const MINOR uint = 1
const PATCH uint = 0

func Version() string {
	return fmt.Sprintf("%d.%d.%d", MAJOR, MINOR, PATCH)
}

// String returns the version line printed by the bgpls binaries.
func String(binary string) string {
	return fmt.Sprintf("%s %s (BGP-LS NLRI, RFC7752)", binary, Version())
}
