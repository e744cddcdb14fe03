package wampnet

// publishOptions collects the optional exclude/eligible filtering a
// Publish or Event call may carry. The zero value sends to every
// subscriber.
type publishOptions struct {
	excludeMe bool
	exclude   []string
	eligible  []string
}

// PublishOption configures a single Publish or Event call.
type PublishOption func(*publishOptions)

// ExcludeMe excludes the publisher's own session from delivery.
func ExcludeMe() PublishOption {
	return func(o *publishOptions) { o.excludeMe = true }
}

// Exclude excludes the given session ids from delivery. Ignored if
// ExcludeMe is also given, matching the wire protocol's single exclude
// slot (a boolean flag or a list, never both).
func Exclude(sessionIds []string) PublishOption {
	return func(o *publishOptions) { o.exclude = sessionIds }
}

// Eligible restricts delivery to exactly the given session ids.
func Eligible(sessionIds []string) PublishOption {
	return func(o *publishOptions) { o.eligible = sessionIds }
}
