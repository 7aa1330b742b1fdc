package fetcher

import (
	"bytes"
	"net/http"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// challengeMarkers are body fragments that identify an anti-bot interstitial.
// Matching is case-insensitive and only consulted for 403/503 responses.
var challengeMarkers = [][]byte{
	[]byte("just a moment"),
	[]byte("checking your browser"),
	[]byte("cf-browser-verification"),
	[]byte("challenge-platform"),
	[]byte("cf-chl-"),
	[]byte("ddos-guard"),
	[]byte("attention required"),
}

// IsChallenge reports whether the response looks like an anti-bot challenge
// rather than a plain failure.
func IsChallenge(p *types.Page) bool {
	if p == nil {
		return false
	}
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusServiceUnavailable {
		return false
	}
	body := bytes.ToLower(p.Body)
	for _, marker := range challengeMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}
