package request

import "time"

// Options configures per-request behavior such as priority and deadline.
type Options struct {
	// Priority determines dispatch ordering. Higher values are served first.
	Priority int

	// Deadline is the absolute time after which the request must be
	// abandoned while waiting. Zero means no deadline.
	Deadline time.Time

	// Metadata is opaque caller-supplied data attached to the request.
	Metadata map[string]any
}

// DefaultOptions returns Options with scheduler defaults.
func DefaultOptions() Options {
	return Options{
		Priority: 0,
	}
}

// Option is a functional option for configuring a request.
type Option func(*Options)

// WithPriority sets the request priority. Higher values are served first;
// negative values are valid and sort below the default of zero.
func WithPriority(p int) Option {
	return func(o *Options) {
		o.Priority = p
	}
}

// WithDeadline sets the absolute time after which the request is abandoned.
func WithDeadline(t time.Time) Option {
	return func(o *Options) {
		o.Deadline = t
	}
}

// WithMetadata replaces the request metadata map.
func WithMetadata(md map[string]any) Option {
	return func(o *Options) {
		o.Metadata = md
	}
}

// WithMetadataValue sets a single metadata key, allocating the map if needed.
func WithMetadataValue(key string, value any) Option {
	return func(o *Options) {
		if o.Metadata == nil {
			o.Metadata = make(map[string]any)
		}
		o.Metadata[key] = value
	}
}
