package offlinecache

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/offline-cache/offline-cache/cache"
	serializer "github.com/offline-cache/offline-cache/pkg/response-serializer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Partition entry limits. The static partition is unbounded: its contents are
// immutable within a generation and bounded by the deployed asset set.
const (
	DefaultAPIMaxEntries     = 100
	DefaultDynamicMaxEntries = 50
)

type Config struct {
	// Storage for cache partitions.
	Store cache.PartitionStore
	// URL of the origin server.
	// Origins with paths are not supported.
	OriginURL url.URL
	// Hostname to use for HTTP requests and TLS negotiation.
	// Use if needed if e.g. the origin URL is just an IP address.
	OriginHost string
	// Deployment generation tag. Supplied by deploy tooling; the worker
	// treats it as opaque. A random tag is generated if empty.
	Generation string
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
	// Path prefix routed to the api partition. Defaults to "/api/".
	APIPrefix string
	// Path of the offline fallback document. Must be on the warm list.
	// Defaults to "/offline.html".
	OfflinePath string
	// Paths pre-populated into the static partition at install.
	// Defaults to the root document, shell document and offline fallback.
	WarmList []string
	// Time-to-live for api partition entries. Defaults to DefaultAPITTL.
	APITTL time.Duration
	// Entry limits for the bounded partitions. Defaults above.
	APIMaxEntries     int
	DynamicMaxEntries int
	// SkipWaiting makes a successful install proceed straight to activation
	// instead of waiting for a force-activate-now command.
	SkipWaiting bool
}

// Worker is the intercepting cache. It implements http.Handler: each incoming
// request is classified and served through a strategy against the worker's
// partitions. Lifecycle transitions and control commands mutate the same
// partitions orthogonally.
type Worker struct {
	store       cache.PartitionStore
	originURL   url.URL
	originHost  string
	generation  string
	log         zerolog.Logger
	httpClient  http.Client
	apiPrefix   string
	offlinePath string
	warmList    []string
	apiTTL      time.Duration
	apiMax      int
	dynamicMax  int
	skipWaiting atomic.Bool

	// controlling is false until activation claims open pages; until then
	// every request bypasses the partitions entirely.
	controlling atomic.Bool

	stateMutex sync.Mutex
	state      LifecycleState
}

// New initializes the worker and sets up the needed variables.
// It does not run any lifecycle transition; call Install and Activate
// (or send a force-activate-now command) to make interception live.
func New(config Config) *Worker {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	if config.Generation == "" {
		config.Generation = uuid.NewString()
	}
	if config.APIPrefix == "" {
		config.APIPrefix = "/api/"
	}
	if config.OfflinePath == "" {
		config.OfflinePath = "/offline.html"
	}
	if len(config.WarmList) == 0 {
		config.WarmList = []string{"/", "/index.html", config.OfflinePath}
	}
	if config.APITTL == 0 {
		config.APITTL = DefaultAPITTL
	}
	if config.APIMaxEntries == 0 {
		config.APIMaxEntries = DefaultAPIMaxEntries
	}
	if config.DynamicMaxEntries == 0 {
		config.DynamicMaxEntries = DefaultDynamicMaxEntries
	}

	// create a child logger and add defaults
	logger = logger.With().
		Str("generation", config.Generation).
		Logger()

	w := &Worker{
		store:       config.Store,
		originURL:   config.OriginURL,
		originHost:  config.OriginHost,
		generation:  config.Generation,
		log:         logger,
		apiPrefix:   config.APIPrefix,
		offlinePath: config.OfflinePath,
		warmList:    config.WarmList,
		apiTTL:      config.APITTL,
		apiMax:      config.APIMaxEntries,
		dynamicMax:  config.DynamicMaxEntries,
		state:       StateInstalling,
		httpClient: http.Client{
			// do not follow redirects
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	w.skipWaiting.Store(config.SkipWaiting)

	// use provided hostname for origin if configured
	if w.originHost != "" {
		w.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				ServerName: w.originHost,
			},
		}
	}

	return w
}

// Generation returns the worker's deployment generation tag.
func (w *Worker) Generation() string {
	return w.generation
}

// partition returns the physical storage name for a logical partition under
// the worker's generation.
func (w *Worker) partition(logical string) string {
	return cache.PhysicalName(logical, w.generation)
}

// maxEntries returns the entry limit for a logical partition, zero meaning
// unbounded.
func (w *Worker) maxEntries(logical string) int {
	switch logical {
	case cache.PartitionAPI:
		return w.apiMax
	case cache.PartitionDynamic:
		return w.dynamicMax
	}
	return 0
}

// ServeHTTP implements the http.Handler interface.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	defer w.recover(rw, r)

	if !w.controlling.Load() {
		// uncontrolled page: pass straight through
		w.bypass(rw, r)
		return
	}

	route := Classify(r.Method, r.URL, r.Header.Get("Accept"), w.apiPrefix)
	switch route.Strategy {
	case StrategyCacheFirst:
		w.cacheFirst(rw, r, route.Partition)
	case StrategyNetworkFirst:
		w.networkFirst(rw, r, route.Partition)
	default:
		w.bypass(rw, r)
	}
}

// recover recovers from panics and sends the response to the escape hatch if needed.
func (w *Worker) recover(rw http.ResponseWriter, r *http.Request) {
	if err := recover(); err != nil {
		w.log.WithLevel(zerolog.PanicLevel).Interface("error", err).Msg("Panic in worker handler")
		w.bypass(rw, r)
	}
}

// bypass forwards the request to the origin without touching any partition.
func (w *Worker) bypass(rw http.ResponseWriter, r *http.Request) {
	var cs CacheStatus
	cs.Forward(CacheStatusFwdBypass)
	res, err := w.fetch(r)
	if err != nil {
		w.log.Error().Err(err).Msg("Error connecting to origin")
		http.Error(rw, "Could not connect to origin", http.StatusBadGateway)
		return
	}
	w.send(rw, r, res, cs)
}

// fetch the resource specified in the incoming request from the origin.
func (w *Worker) fetch(r *http.Request) (*http.Response, error) {
	uri := w.originURL.String() + r.URL.RequestURI()
	// need to specifically set body to nil on the outgoing request if content is zero length
	// see https://github.com/golang/go/issues/16036
	body := r.Body
	if r.ContentLength == 0 {
		body = nil
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, uri, body)
	if err != nil {
		w.log.Error().Err(err).Str("uri", uri).Msg("Could not create request for fetching")
		return nil, err
	}
	req.Host = w.originHost
	copyHeader(req.Header, r.Header)
	// do not forward connection header, this causes trouble
	req.Header.Del("Connection")

	return w.httpClient.Do(req)
}

// fetchPath fetches an origin path without an incoming request, e.g. for
// warming the static partition.
func (w *Worker) fetchPath(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.originURL.String()+path, nil)
	if err != nil {
		return nil, err
	}
	req.Host = w.originHost
	return w.httpClient.Do(req)
}

// send writes a response to the client, closing its body.
func (w *Worker) send(rw http.ResponseWriter, r *http.Request, res *http.Response, cs CacheStatus) {
	if res.Body != nil {
		defer res.Body.Close()
	}
	copyHeader(rw.Header(), res.Header)
	rw.Header().Add("Cache-Status", cs.String())
	rw.WriteHeader(res.StatusCode)
	bytesWritten, err := io.Copy(rw, res.Body)
	if err != nil {
		w.log.Error().Err(err).Msg("Could not write response body to client")
	}
	w.logRequest(r, cs)
	w.log.Trace().Msgf("Wrote body (%d bytes)", bytesWritten)
}

// sendStored writes a stored response snapshot to the client.
// The freshness marker is stripped before sending.
func (w *Worker) sendStored(rw http.ResponseWriter, r *http.Request, stored []byte, cs CacheStatus) {
	res, err := serializer.BytesToResponse(stored, r)
	if err != nil {
		w.log.Error().Err(err).Msg("Could not create response from stored bytes")
		http.Error(rw, "Bad cache entry", http.StatusInternalServerError)
		return
	}
	res.Header.Del(serializer.FreshnessHeader)
	w.send(rw, r, res, cs)
}

// sendOfflineFallback serves the offline fallback document from the static
// partition. It is the terminal degradation for HTML navigations: if even the
// fallback is missing, 503 is all that is left.
func (w *Worker) sendOfflineFallback(rw http.ResponseWriter, r *http.Request, cs CacheStatus) {
	key := http.MethodGet + methodSeparator + w.offlinePath
	stored, ok, err := w.store.Get(w.partition(cache.PartitionStatic), key)
	if err != nil || !ok {
		w.log.Warn().Err(err).Str("path", w.offlinePath).Msg("Offline fallback not available")
		http.Error(rw, "Offline", http.StatusServiceUnavailable)
		return
	}
	cs.Detail("offline-fallback")
	w.sendStored(rw, r, stored, cs)
}

func (w *Worker) logRequest(r *http.Request, cs CacheStatus) {
	isHit := 0
	if cs.status == CacheStatusHit {
		isHit = 1
	}
	w.log.Debug().
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("status", string(cs.status)).
		Str("fwd", string(cs.fwdReason)).
		Int("hit", isHit).
		Msg("Sending response to client")
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		// these headers are set by upstream proxies and confuse some servers
		if k != "X-Forwarded-For" && k != "X-Forwarded-Proto" && k != "X-Forwarded-Host" {
			for _, v := range vv {
				dst.Add(k, v)
			}
		}
	}
}
