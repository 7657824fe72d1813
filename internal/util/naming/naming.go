package naming

import (
	"fmt"
	"strconv"
)

// Tool is the base tag applied to every managed resource.
const Tool = "srcdsctl"

// InstanceTag returns the per-instance tag, e.g. "srcds-tf2-01".
func InstanceTag(name string) string {
	return fmt.Sprintf("srcds-%s", name)
}

// SSHKeyName is the label under which the tool registers its public key
// with a provider.
func SSHKeyName() string {
	return Tool
}

// SetupLogFile returns the local filename for a downloaded setup log.
func SetupLogFile(name, id string) string {
	return fmt.Sprintf("%s-%s.log", name, id)
}

// Series returns count instance names "prefix-NN" starting at start, zero
// padded to the width of the largest index and never narrower than two
// digits, so a series sorts lexically in creation order.
func Series(prefix string, start, count int) []string {
	width := len(strconv.Itoa(start + count - 1))
	if width < 2 {
		width = 2
	}
	names := make([]string, 0, count)
	for i := start; i < start+count; i++ {
		names = append(names, fmt.Sprintf("%s-%0*d", prefix, width, i))
	}
	return names
}
