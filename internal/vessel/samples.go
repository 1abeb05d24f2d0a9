package vessel

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed samples/*.yaml
var samples embed.FS

// Sample parses one of the built-in vessels by name.
func Sample(name string) (*File, error) {
	data, err := samples.ReadFile(path.Join("samples", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown sample %q (available: %v)", name, ListSamples())
	}
	return Parse(data)
}

func ListSamples() []string {
	entries, err := samples.ReadDir("samples")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}
