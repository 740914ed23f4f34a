// Package flagx picks the flags a component owns out of the full command
// line, so each config layer can run its own flag.FlagSet over os.Args
// without failing on flags that belong to another layer.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// Set describes the flags one component parses. Names are written without
// dashes; both -name and --name match. Bool flags never consume the next
// argument as their value, so -concurrent path.db leaves path.db alone.
type Set struct {
	Names []string
	Bools []string
}

func (s Set) lookup(arg string) (name string, isBool, ok bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", false, false
	}
	name = strings.TrimLeft(arg, "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		name = name[:i]
	}
	for _, b := range s.Bools {
		if b == name {
			return name, true, true
		}
	}
	for _, n := range s.Names {
		if n == name {
			return name, false, true
		}
	}
	return "", false, false
}

// Filter returns the arguments that belong to s, in their original order.
//
// A flag given as -name=value is kept whole. A non-bool flag given as -name
// takes the next argument as its value unless that argument starts with a
// dash. Everything else is dropped.
func (s Set) Filter(args []string) []string {
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		_, isBool, ok := s.lookup(arg)
		if !ok {
			continue
		}
		filtered = append(filtered, arg)

		if strings.Contains(arg, "=") || isBool {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigPath returns the JSON config file named by -c or -config in args,
// or "" when neither is present. When both are given the last one wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(Set{Names: []string{"c", "config"}}.Filter(args))

	return path
}
