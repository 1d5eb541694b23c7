package startup

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"volume-index/internal/logging"
)

const rule = "============================================================"

// section starts a titled block of startup output
func section(title string) {
	logging.Info("")
	logging.Info("%s", strings.ToUpper(title))
	logging.Info("%s", rule[:len(title)])
}

// field logs one aligned "label: value" line inside a section
func field(label, format string, args ...interface{}) {
	logging.Info("  %-18s %s", label+":", fmt.Sprintf(format, args...))
}

func logBanner() {
	logging.Printf("%s", `
 _   __     __                    ____          __
| | / /__  / /_ ____ _  ___ ___  /  _/__  ___  / /____ __
| |/ / _ \/ / // /  ' \/ -_)___/_/ // _ \/ _ \/ -_) \ /
|___/\___/_/\_,_/_/_/_/\__/   /___/_//_/\_,_/\__/_\_\
`)
	field("Version", "%s (%s, built %s)", Version, Commit, BuildTime)
	field("Started", "%s", time.Now().Format(time.RFC1123))
}

func logHost() {
	section("Host")
	field("Go", "%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	procs, cpus := runtime.GOMAXPROCS(0), runtime.NumCPU()
	if procs < cpus {
		field("CPUs", "%d of %d (limited)", procs, cpus)
	} else {
		field("CPUs", "%d", cpus)
	}

	if !logging.IsDebugEnabled() {
		return
	}
	if host, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname: %s", host)
	}
	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir: %s", wd)
	}
}

// LogMemoryConfig reports the GOMEMLIMIT decision
func LogMemoryConfig(configured bool, source string, goMemLimit string) {
	section("Memory")
	if !configured {
		field("GOMEMLIMIT", "unset, walker backpressure disabled (set MEMORY_LIMIT)")
		return
	}
	field("GOMEMLIMIT", "%s from %s", goMemLimit, source)
}

// LogIndexInit reports how volumes will be walked
func LogIndexInit(workers int, skipHidden bool, volumeLabels []string) {
	section("Index")
	field("Walk workers", "%d", workers)
	field("Skip hidden", "%t", skipHidden)
	if len(volumeLabels) == 0 {
		field("Volumes", "none detected")
		return
	}
	field("Volumes", "%s", strings.Join(volumeLabels, ", "))
}

// LogIndexReady reports a finished load or build
func LogIndexReady(state string, volumes int, duration time.Duration) {
	logging.Info("Index %s with %d volumes after %v", state, volumes, duration.Round(time.Millisecond))
}

// RouteInfo is one method/path pair registered on a router
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every route of router, one entry per method. Routes
// without a method matcher are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes reports access logging and, at debug level, the route table
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP")
	field("Access log", "W3C extended")
	field("Health probes", "%s", map[bool]string{true: "logged", false: "not logged"}[logHealthChecks])

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("  Walking routes failed: %v", err)
	}

	// group -> path -> methods
	table := make(map[string]map[string][]string)
	for _, r := range routes {
		g := getRouteGroup(r.Path)
		if table[g] == nil {
			table[g] = make(map[string][]string)
		}
		table[g][r.Path] = append(table[g][r.Path], r.Method)
	}

	groups := make([]string, 0, len(table))
	for g := range table {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	logging.Debug("  %d routes:", len(routes))
	for _, g := range groups {
		paths := make([]string, 0, len(table[g]))
		for p := range table[g] {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			logging.Debug("    %-10s %-9s %s", "["+g+"]", strings.Join(table[g][p], ","), p)
		}
	}
}

// getRouteGroup returns the first path segment, or "api/<resource>" for API
// routes.
func getRouteGroup(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if segments[0] == "api" && len(segments) > 1 {
		return "api/" + segments[1]
	}
	return segments[0]
}

// ServerConfig is what LogServerStarted reports
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted reports the listening endpoints
func LogServerStarted(config ServerConfig) {
	section("Listening")
	field("API", "http://0.0.0.0:%s/api", config.Port)
	field("Probes", "http://0.0.0.0:%s/{livez,readyz,healthz}", config.Port)
	if config.MetricsEnabled {
		field("Metrics", "http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		field("Metrics", "disabled")
	}
	field("Startup took", "%v", config.StartupDuration.Round(time.Millisecond))
}

// LogShutdownInitiated reports the signal that stopped the server
func LogShutdownInitiated(signal string) {
	section("Shutdown (" + signal + ")")
}

// LogShutdownStep reports a step that is about to run
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete reports a finished step
func LogShutdownStepComplete(step string) {
	logging.Info("  done: %s", step)
}

// LogShutdownComplete reports that every step has run
func LogShutdownComplete() {
	logging.Info("Shutdown complete")
}

// LogFatal logs and exits with status 1
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}
