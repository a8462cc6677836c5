package offlinecache

import (
	"net/url"
	"testing"

	"github.com/offline-cache/offline-cache/cache"

	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, rawurl string) *url.URL {
	t.Helper()
	u, err := url.Parse(rawurl)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		method string
		url    string
		accept string
		want   Route
	}{
		{
			name:   "non-GET bypasses, even for api paths",
			method: "POST",
			url:    "/api/vehicles",
			accept: "application/json",
			want:   Route{Strategy: StrategyBypass},
		},
		{
			name:   "non-GET bypasses, even for static assets",
			method: "PUT",
			url:    "/app.js",
			want:   Route{Strategy: StrategyBypass},
		},
		{
			name:   "extension scheme bypasses",
			method: "GET",
			url:    "chrome-extension://abcdef/script.js",
			want:   Route{Strategy: StrategyBypass},
		},
		{
			name:   "api prefix wins over extension",
			method: "GET",
			url:    "/api/report.css",
			want:   Route{Partition: cache.PartitionAPI, Strategy: StrategyNetworkFirst},
		},
		{
			name:   "api prefix with query",
			method: "GET",
			url:    "/api/vehicles?page=2",
			want:   Route{Partition: cache.PartitionAPI, Strategy: StrategyNetworkFirst},
		},
		{
			name:   "script asset",
			method: "GET",
			url:    "/assets/app.js",
			want:   Route{Partition: cache.PartitionStatic, Strategy: StrategyCacheFirst},
		},
		{
			name:   "stylesheet asset",
			method: "GET",
			url:    "/app.css",
			want:   Route{Partition: cache.PartitionStatic, Strategy: StrategyCacheFirst},
		},
		{
			name:   "font asset",
			method: "GET",
			url:    "/fonts/inter.woff2",
			want:   Route{Partition: cache.PartitionStatic, Strategy: StrategyCacheFirst},
		},
		{
			name:   "icon asset, uppercase extension",
			method: "GET",
			url:    "/FAVICON.ICO",
			want:   Route{Partition: cache.PartitionStatic, Strategy: StrategyCacheFirst},
		},
		{
			name:   "html navigation",
			method: "GET",
			url:    "/vehicles/42",
			accept: "text/html,application/xhtml+xml",
			want:   Route{Partition: cache.PartitionDynamic, Strategy: StrategyNetworkFirst},
		},
		{
			name:   "default is dynamic network-first",
			method: "GET",
			url:    "/manifest.webmanifest",
			accept: "*/*",
			want:   Route{Partition: cache.PartitionDynamic, Strategy: StrategyNetworkFirst},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.method, mustParse(t, tt.url), tt.accept, "/api/")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyHasNoSideEffects(t *testing.T) {
	u := mustParse(t, "/api/vehicles?page=2")
	first := Classify("GET", u, "", "/api/")
	second := Classify("GET", u, "", "/api/")
	assert.Equal(t, first, second)
	assert.Equal(t, "/api/vehicles?page=2", u.String())
}
