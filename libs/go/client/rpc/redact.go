package rpc

import (
	"net/url"
	"strings"
)

// redactURL hides credentials and API-key path segments (e.g. Infura's
// /v3/<key>) before an endpoint is logged.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "<unparseable endpoint>"
	}
	u.User = nil
	u.RawQuery = ""
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 && segments[len(segments)-1] != "" && len(segments[len(segments)-1]) >= 16 {
		segments[len(segments)-1] = "redacted"
		u.Path = "/" + strings.Join(segments, "/")
		u.RawPath = ""
	}
	return u.String()
}
