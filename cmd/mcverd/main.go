// Command mcverd serves Minecraft version conversions over HTTP, and tracks the
// latest release.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/julienschmidt/httprouter"
	"github.com/pgaskin/mcver"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	cfg, err := LoadConfig(fs, os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if cfg.Verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("fatal error")
	}
}

// Server holds the components behind the HTTP handler.
type Server struct {
	Handler http.Handler
	Latest  *LatestTracker // nil if disabled

	cache *RistrettoCache
}

func NewServer(cfg *Config, log zerolog.Logger) (*Server, error) {
	def, err := mcver.LookupScheme(cfg.Scheme)
	if err != nil {
		return nil, err
	}

	c := &http.Client{Timeout: cfg.Timeout.Duration}
	start := time.Now()

	h, err := NewRistrettoCache(cfg.CacheLimit * 1000000)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	var l *LatestTracker
	switch cfg.Latest.Source {
	case "manifest":
		l = NewLatestTracker(NewManifestSource(c, cfg.Latest.URL), def, log)
	case "html":
		l = NewLatestTracker(NewHTMLSource(c, cfg.Latest.URL, cfg.Latest.Selector), def, log)
	}

	var tn *TelegramNotifier
	if cfg.Telegram.Token != "" {
		t, err := NewTelegram(c, cfg.Telegram.Token)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("initialize telegram: %w", err)
		}
		var errs []error
		tn, errs = NewTelegramNotifier(t, def, log, cfg.Telegram.Chats, cfg.Telegram.ForcedChats)
		for _, err := range errs {
			log.Warn().Str("what", "telegram").Err(err).Msg("failed to initialize chat")
		}
		if l != nil {
			l.Notify(tn)
		} else {
			log.Warn().Str("what", "telegram").Msg("latest release tracking is disabled, so no notifications will be sent")
		}
	}

	cv := NewConverter(def, log)
	r := httprouter.New()

	ttl := cfg.CacheTTL.Duration

	r.GET("/", handler(http.RedirectHandler("https://github.com/pgaskin/mcver", http.StatusTemporaryRedirect)))
	r.GET("/classic/:version", cached(h, ttl, cv, "classic", cv.HandleTarget("classic")))
	r.GET("/drop/:version", cached(h, ttl, cv, "drop", cv.HandleTarget("drop")))
	r.GET("/convert/:version", cached(h, ttl, cv, "convert", cv.HandleConvert))
	r.GET("/badge/:target/:file", cached(h, ttl, cv, "badge", cv.HandleBadge))
	r.GET("/table", cached(h, ttl, cv, "table", cv.HandleTable))
	r.GET("/stats", handler(h.StatsHandler(start)))
	ms := []interface{ WritePrometheus(io.Writer) }{cv, h}
	if l != nil {
		ms = append(ms, l)
	}
	if tn != nil {
		ms = append(ms, tn)
	}
	r.GET("/metrics", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		for _, m := range ms {
			m.WritePrometheus(w)
		}
	})
	if l != nil {
		l.Mount(r)
	}

	return &Server{
		Handler: gziphandler.GzipHandler(
			withRequestID(
				withLogging(log,
					withRateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst), r),
				),
			),
		),
		Latest: l,
		cache:  h,
	}, nil
}

func (s *Server) Close() {
	s.cache.Close()
}

func run(ctx context.Context, cfg *Config, log zerolog.Logger) error {
	s, err := NewServer(cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: time.Second * 10,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("what", "listen").Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if s.Latest != nil {
		g.Go(func() error {
			return s.Latest.Run(ctx, cfg.Latest.Interval.Duration)
		})
	}
	return g.Wait()
}

func handler(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}
