package offlinecache

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/offline-cache/offline-cache/cache"
)

// Strategy names how a classified request is satisfied.
type Strategy string

const (
	// StrategyBypass forwards the request without touching any partition.
	StrategyBypass Strategy = "bypass"
	// StrategyCacheFirst serves from the partition when possible.
	StrategyCacheFirst Strategy = "cache-first"
	// StrategyNetworkFirst prefers the network, falling back to the partition.
	StrategyNetworkFirst Strategy = "network-first"
)

// Route is the result of classifying a request: which logical partition it
// belongs to and which strategy serves it. Partition is empty for bypass.
type Route struct {
	Partition string
	Strategy  Strategy
}

// staticExtensions are the asset suffixes served cache-first.
// Scripts, stylesheets, images, fonts and icons are immutable within a
// deployment generation.
var staticExtensions = map[string]bool{
	".js":    true,
	".mjs":   true,
	".css":   true,
	".png":   true,
	".jpg":   true,
	".jpeg":  true,
	".gif":   true,
	".svg":   true,
	".webp":  true,
	".ico":   true,
	".woff":  true,
	".woff2": true,
	".ttf":   true,
	".eot":   true,
	".otf":   true,
}

// Classify maps a request shape to a (partition, strategy) pair.
// It is a pure function: no partition is read or written here.
// The rules are evaluated in order, and the non-GET check is absolute.
func Classify(method string, u *url.URL, accept, apiPrefix string) Route {
	if method != http.MethodGet {
		return Route{Strategy: StrategyBypass}
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		// browser-extension and other exotic schemes
		return Route{Strategy: StrategyBypass}
	}
	if strings.HasPrefix(u.Path, apiPrefix) {
		return Route{Partition: cache.PartitionAPI, Strategy: StrategyNetworkFirst}
	}
	if staticExtensions[strings.ToLower(path.Ext(u.Path))] {
		return Route{Partition: cache.PartitionStatic, Strategy: StrategyCacheFirst}
	}
	if wantsHTML(accept) {
		return Route{Partition: cache.PartitionDynamic, Strategy: StrategyNetworkFirst}
	}
	return Route{Partition: cache.PartitionDynamic, Strategy: StrategyNetworkFirst}
}

// wantsHTML reports whether the Accept header indicates an HTML document,
// i.e. a navigation rather than a subresource or data request.
func wantsHTML(accept string) bool {
	return strings.Contains(accept, "text/html")
}
