package validation

// PlatformTestInfoPolicy decides whether platform questions may carry test_info.
type PlatformTestInfoPolicy string

const (
	// PlatformTestInfoStrict platform questions must have null or absent test_info.
	PlatformTestInfoStrict PlatformTestInfoPolicy = "strict"
	// PlatformTestInfoLenient platform questions may carry any well-formed test_info.
	PlatformTestInfoLenient PlatformTestInfoPolicy = "lenient"
)

type options struct {
	platformTestInfo PlatformTestInfoPolicy
}

// Option tunes a validator call.
type Option func(*options)

// WithPlatformTestInfo selects the policy for test_info on platform questions.
func WithPlatformTestInfo(p PlatformTestInfoPolicy) Option {
	return func(o *options) {
		if p != "" {
			o.platformTestInfo = p
		}
	}
}

func newOptions(opts []Option) options {
	o := options{platformTestInfo: PlatformTestInfoStrict}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
