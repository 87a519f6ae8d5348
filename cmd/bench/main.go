// Command bench runs a synthetic workload against the cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/nkurubal/pecache/cache"
	pmet "github.com/nkurubal/pecache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys       = flag.Int("keys", 1_000_000, "keyspace size")
		priorities = flag.Int("priorities", 16, "number of distinct priority classes")
		ttl        = flag.Duration("ttl", 30*time.Second, "per-entry TTL (0 = no expiration)")
		zipfS      = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV      = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload    = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "pecache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Cache ----
	c := cache.New[string, []byte](cache.Options[string, []byte]{
		Capacity:   *capacity,
		DefaultTTL: *ttl,
		Metrics:    metrics,
	})
	defer func() { _ = c.Close() }()

	// ---- Preload ----
	n := *preload
	if n <= 0 {
		n = *capacity / 2
	}
	rp := rand.New(rand.NewSource(*seed))
	for i := 0; i < n; i++ {
		c.Set("k:"+strconv.Itoa(i), []byte("v"), rp.Intn(*priorities))
	}
	log.Printf("preloaded %d entries (cap=%d, priorities=%d, ttl=%v)", n, *capacity, *priorities, *ttl)

	// ---- Workload ----
	var ops atomic.Int64
	stop := time.Now().Add(*duration)

	var g errgroup.Group
	for w := 0; w < *workers; w++ {
		w := w
		g.Go(func() error {
			r := rand.New(rand.NewSource(*seed + int64(w)*7919))
			z := rand.NewZipf(r, *zipfS, *zipfV, uint64(*keys-1))
			for time.Now().Before(stop) {
				k := "k:" + strconv.FormatUint(z.Uint64(), 10)
				if r.Intn(100) < *readPct {
					c.Get(k)
				} else {
					c.Set(k, []byte("v"), r.Intn(*priorities))
				}
				ops.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	// ---- Report ----
	total := ops.Load()
	s := c.Stats()
	secs := duration.Seconds()
	fmt.Printf("ops: %d (%.0f ops/s)\n", total, float64(total)/secs)
	fmt.Printf("hits: %d  misses: %d  evictions: %d  resident: %d\n",
		s.Hits, s.Misses, s.Evictions, c.Len())
	if s.Hits+s.Misses > 0 {
		fmt.Printf("hit rate: %.2f%%\n", 100*float64(s.Hits)/float64(s.Hits+s.Misses))
	}
}
