package models

import (
	"sort"
	"strings"
)

// Environment accepts both the mapping and the list form of the
// environment key. Entries are normalized to "NAME=value" strings, except
// bare list entries ("NAME" with no "="), which name a host variable to be
// forwarded at deploy time.
type Environment []string

func (e *Environment) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var entries []string
	var asMap map[string]string
	if err := unmarshal(&asMap); err == nil {
		for key, val := range asMap {
			entries = append(entries, key+"="+val)
		}
		// map iteration order is random; keep output stable
		sort.Strings(entries)
		*e = entries
		return nil
	}

	if err := unmarshal(&entries); err != nil {
		return err
	}
	*e = entries
	return nil
}

// Resolve expands passthrough entries using lookup (typically os.Getenv).
// An unset host variable forwards as empty, matching compose behavior.
func (e Environment) Resolve(lookup func(string) string) []string {
	if len(e) == 0 {
		return nil
	}

	out := make([]string, 0, len(e))
	for _, entry := range e {
		if strings.Contains(entry, "=") {
			out = append(out, entry)
			continue
		}
		out = append(out, entry+"="+lookup(entry))
	}
	return out
}

// PassthroughNames returns the host variable names this environment
// forwards, in declaration order.
func (e Environment) PassthroughNames() []string {
	var names []string
	for _, entry := range e {
		if !strings.Contains(entry, "=") {
			names = append(names, entry)
		}
	}
	return names
}
