package pacer

import (
	"errors"
	"log/slog"

	"github.com/xraph/pacer/backoff"
	"github.com/xraph/pacer/ext"
	"github.com/xraph/pacer/middleware"
	"github.com/xraph/pacer/quota"
	"github.com/xraph/pacer/store"
)

// Option configures a Scheduler at construction.
type Option func(*Scheduler) error

// WithStore sets the rate-limit counter backend. The default is an
// in-process store; pass a shared backend (Redis, Postgres, MongoDB,
// SQLite) to share one window across schedulers or processes. The
// scheduler owns the store and closes it on Destroy.
func WithStore(st store.Store) Option {
	return func(s *Scheduler) error {
		if st == nil {
			return errors.New("pacer: nil store")
		}
		s.store = st
		return nil
	}
}

// WithQuotaSource switches the scheduler to dynamic quota mode: admission
// follows the remaining/reset values the source reports instead of the
// static fixed window. While the source fails, admission falls back to
// Config.QuotaFallback or the static limit. Wrap the source in
// quota.NewCached to bound lookup traffic.
func WithQuotaSource(src quota.Source) Option {
	return func(s *Scheduler) error {
		if src == nil {
			return errors.New("pacer: nil quota source")
		}
		s.quota = src
		return nil
	}
}

// WithLogger sets the structured logger for the scheduler.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) error {
		if l == nil {
			return errors.New("pacer: nil logger")
		}
		s.logger = l
		return nil
	}
}

// WithBackoff overrides the retry delay strategy derived from
// Config.Retry. Retry eligibility still follows Config.Retry.
func WithBackoff(b backoff.Strategy) Option {
	return func(s *Scheduler) error {
		if b == nil {
			return errors.New("pacer: nil backoff strategy")
		}
		s.bo = b
		return nil
	}
}

// WithMiddleware appends middleware to the execution chain. Middleware
// runs in the order given, inside the built-in recovery and logging
// layers.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(s *Scheduler) error {
		s.userMW = append(s.userMW, mws...)
		return nil
	}
}

// WithExtensions registers lifecycle extensions at construction.
// Extensions can also be added later with RegisterExtension.
func WithExtensions(exts ...ext.Extension) Option {
	return func(s *Scheduler) error {
		s.optExts = append(s.optExts, exts...)
		return nil
	}
}
