// Package flagx helps several independent parsers share one argument list:
// configuration picks out the flags it owns while the CLI reads the rest as
// positional command words.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigFileEnv names the environment variable consulted when no -c/-config
// flag is given.
const ConfigFileEnv = "RFC_CONFIG"

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
func FilterArgs(args []string, allowedFlags []string) []string {
	filtered, _ := split(args, allowedFlags)
	return filtered
}

// Positional returns the arguments that FilterArgs would drop for the same
// allowedFlags: command words and their operands, in order.
func Positional(args []string, allowedFlags []string) []string {
	_, rest := split(args, allowedFlags)
	return rest
}

func split(args []string, allowedFlags []string) (filtered, rest []string) {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered = make([]string, 0, len(args))
	rest = make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--flag=value" or "-f=value"
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			} else {
				rest = append(rest, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			// a following token that does not look like a flag is the value
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
			continue
		}

		rest = append(rest, arg)
	}

	return filtered, rest
}

// ConfigFileFlags extracts the config file path given via -c or -config.
// Other arguments are ignored. When neither flag is present the value of
// RFC_CONFIG is returned, which may be empty.
func ConfigFileFlags(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, ConfigFileFlagNames))

	if config == "" {
		config = os.Getenv(ConfigFileEnv)
	}
	return config
}

// ConfigFileFlagNames lists the spellings ConfigFileFlags understands.
var ConfigFileFlagNames = []string{"-c", "-config", "--config"}
