package mapper

// Default thresholds for choosing between the mask table and the hash
// fallback. Both are tunable; the choice never changes lookup results.
const (
	DefaultMaskTableLimit = 256
	DefaultMaxSlotLoad    = 8
)

// Options controls representation selection.
type Options struct {
	// MaskTableLimit is the largest unique key count served by a mask table.
	MaskTableLimit int

	// MaxSlotLoad is the largest number of keys allowed to share one mask
	// table slot before construction falls back to the hash map.
	MaxSlotLoad int

	// Force selects a representation regardless of the heuristics. Only
	// KindMaskTable and KindHashFallback can be forced for any key count;
	// KindSingle and KindPair are honored only when the count matches.
	Force Kind
}

// Option configures construction.
type Option func(*Options)

// WithMaskTableLimit sets the unique key count above which the hash
// fallback is used.
func WithMaskTableLimit(n int) Option {
	return func(o *Options) { o.MaskTableLimit = n }
}

// WithMaxSlotLoad sets the slot load above which the hash fallback is used.
func WithMaxSlotLoad(n int) Option {
	return func(o *Options) { o.MaxSlotLoad = n }
}

// WithRepresentation forces the representation kind.
func WithRepresentation(k Kind) Option {
	return func(o *Options) { o.Force = k }
}

func newOptions(opts []Option) Options {
	o := Options{
		MaskTableLimit: DefaultMaskTableLimit,
		MaxSlotLoad:    DefaultMaxSlotLoad,
		Force:          kindAuto,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxSlotLoad < 1 {
		o.MaxSlotLoad = 1
	}
	return o
}
