package router

import (
	"strings"

	"github.com/nczempin/httpd-go-uring/compression"
	"github.com/nczempin/httpd-go-uring/protocol"
)

// Negotiate picks the response encoding from Accept-Encoding. The first
// listed token that is supported wins; q-values are not interpreted.
func Negotiate(req *protocol.HttpRequest) (string, bool) {
	accepted, ok := req.Headers.Get("Accept-Encoding")
	if !ok {
		return "", false
	}

	for _, token := range strings.Split(accepted, ",") {
		token = strings.TrimSpace(token)
		if _, ok := compression.Lookup(token); ok {
			return token, true
		}
	}
	return "", false
}
