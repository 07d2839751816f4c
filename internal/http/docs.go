// package http contains the wire level request and response types shared by
// the dialers, the transport and the low level client. the package name is
// kept the same as the standard library's so that code reads naturally at the
// call sites that only need a header or NoBody.
//
// the package also contains some type and value aliases from standard
// library to avoid annoying imports
package http

import (
	"net/http"
)

type Header = http.Header

var NoBody = http.NoBody
