package semantic

import "strings"

// managerVerbs maps package manager commands to the subcommands that
// install dependencies. An empty verb set means the bare command installs
// (e.g. plain "yarn" runs an install).
var managerVerbs = map[string][]string{
	"apt-get":  {"install"},
	"apt":      {"install"},
	"apk":      {"add"},
	"yum":      {"install"},
	"dnf":      {"install"},
	"zypper":   {"install", "in"},
	"npm":      {"install", "i", "ci"},
	"yarn":     {"", "install", "add"},
	"pnpm":     {"install", "i", "add"},
	"pip":      {"install"},
	"pip3":     {"install"},
	"pipenv":   {"install", "sync"},
	"poetry":   {"install"},
	"bundle":   {"install"},
	"composer": {"install"},
}

// detectPackageInstall scans a RUN command line for a dependency-install
// invocation and returns the package manager name, or "" if none is found.
// The scan is token-based: the command is split on shell connectors and
// each segment's leading words are matched against known managers. It is a
// heuristic for sizing, not a shell parser.
func detectPackageInstall(cmdline string) string {
	for _, segment := range splitSegments(cmdline) {
		fields := strings.Fields(segment)
		// Skip env assignments and sudo prefixes.
		for len(fields) > 0 && (strings.Contains(fields[0], "=") || fields[0] == "sudo") {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}

		cmd := fields[0]
		if cmd == "go" && len(fields) >= 3 && fields[1] == "mod" && fields[2] == "download" {
			return "go"
		}

		verbs, ok := managerVerbs[cmd]
		if !ok {
			continue
		}
		if matchesVerb(fields, verbs) {
			return cmd
		}
	}
	return ""
}

func matchesVerb(fields, verbs []string) bool {
	var sub string
	// First non-flag argument is the subcommand.
	for _, f := range fields[1:] {
		if !strings.HasPrefix(f, "-") {
			sub = f
			break
		}
	}
	for _, verb := range verbs {
		if verb == "" && sub == "" {
			return true
		}
		if verb != "" && sub == verb {
			return true
		}
	}
	return false
}

// splitSegments breaks a command line on shell connectors (&&, ||, ;, |)
// so chained commands are inspected independently.
func splitSegments(cmdline string) []string {
	replacer := strings.NewReplacer("&&", "\n", "||", "\n", ";", "\n", "|", "\n")
	return strings.Split(replacer.Replace(cmdline), "\n")
}
