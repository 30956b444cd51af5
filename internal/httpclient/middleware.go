package httpclient

import (
	"net/http"
	"net/url"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// InjectQuery returns a Middleware that adds query parameters to every
// outgoing request. Values in set always overwrite the request's own;
// values in defaults are only added when the request does not carry the key.
func InjectQuery(set, defaults url.Values) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(req *http.Request) (*http.Response, error) {
			// RoundTrippers must not modify the caller's request.
			r := req.Clone(req.Context())
			q := r.URL.Query()
			for k, vs := range defaults {
				if !q.Has(k) {
					q[k] = append([]string(nil), vs...)
				}
			}
			for k, vs := range set {
				q[k] = append([]string(nil), vs...)
			}
			r.URL.RawQuery = q.Encode()
			return next.RoundTrip(r)
		})
	}
}
