// package useragent issues HTTP calls on top of the pooled HTTP/1.1 client.
//
// a call is a chain of attempts, each a chain of hops:
//
//	attempt 0: GET /a -> 302 /b, GET /b -> timeout
//	attempt 1: GET /a -> 302 /b, GET /b -> 200
//
// hops follow redirects within the redirect budget, attempts are started
// after a failure the [Classifier] deems recoverable, within the retry
// budget. by default only timeouts are recoverable.
package useragent
