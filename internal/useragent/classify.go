package useragent

// Classifier decides what happens to a failure caught while issuing a call.
// recoverable failures record the returned error and move on to the next
// attempt, anything else aborts the call with the returned error.
type Classifier func(err error) (recorded error, recoverable bool)

// DefaultClassifier only retries timeouts. every other failure, bad status
// codes included, is returned to the caller on first occurrence.
func DefaultClassifier(err error) (error, bool) {
	return err, IsTimeout(err)
}

// RetryStatusCodes returns a classifier that additionally retries replies
// with one of the given status codes.
func RetryStatusCodes(codes ...int) Classifier {
	set := make(map[int]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return func(err error) (error, bool) {
		if bsc, ok := err.(*BadStatusCode); ok && set[bsc.StatusCode] {
			return err, true
		}
		return DefaultClassifier(err)
	}
}
