// package transport contains implementations to requirements on *message syntaxes*
// defined by http related RFCs.
//
// as of 2022.06, RFCs that were to define HTTP/1.1 (RFC753x) are obsoleted by:
//
//	HTTP Semantics (RFC9110)
//	HTTP Caching (RFC9111) and
//	HTTP/1.1 (RFC9112)
//
// only the HTTP/1.1 message syntax is implemented here. the user agent on top
// never needs more than one request in flight per connection.
//
// net/http components are reused on the "semantics" part ([net/http.URL], [net/http.Header], etc.)
package transport
