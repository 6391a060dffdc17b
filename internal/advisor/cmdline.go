package advisor

import "strings"

// longRunningMarkers are substrings that indicate a CMD keeps a process in
// the foreground (a server or watcher) rather than running to completion.
var longRunningMarkers = []string{
	"start",
	"serve",
	"server",
	"nginx",
	"httpd",
	"gunicorn",
	"uvicorn",
	"flask run",
	"rails server",
}

// staticServeMarkers are substrings that indicate a general-purpose runtime
// is being used to serve static files.
var staticServeMarkers = []string{
	"http.server",
	"simplehttpserver",
	"http-server",
	"npx serve",
	"serve -s",
	"npm run serve",
	"yarn serve",
}

// LooksLongRunning reports whether a CMD line plausibly launches a
// long-running process. The check is a substring heuristic over the
// flattened command text.
func LooksLongRunning(cmdline string) bool {
	return matchesAny(cmdline, longRunningMarkers)
}

// ServesStaticFiles reports whether a CMD line uses a general-purpose
// runtime to serve static files.
func ServesStaticFiles(cmdline string) bool {
	return matchesAny(cmdline, staticServeMarkers)
}

func matchesAny(cmdline string, markers []string) bool {
	lowered := strings.ToLower(cmdline)
	for _, marker := range markers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
