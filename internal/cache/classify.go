package cache

import (
	"net/url"
	"path"
	"strings"
)

// Strategy is the resource class a request falls into. Exactly one strategy
// applies per request, determined by URL classification alone.
type Strategy string

const (
	StrategyStatic Strategy = "static"
	StrategyAPI    Strategy = "api"
	StrategyMedia  Strategy = "media"
	StrategyBypass Strategy = "bypass"
)

var staticExtensions = map[string]bool{
	".css":   true,
	".js":    true,
	".json":  true,
	".png":   true,
	".jpg":   true,
	".svg":   true,
	".woff2": true,
}

var mediaExtensions = map[string]bool{
	".mp3":  true,
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".wav":  true,
}

// Classifier decides the cache strategy for a request. Pure: the same
// method/URL/accept triple always maps to the same strategy.
type Classifier struct {
	// OriginHost is the host the gateway fronts; anything else is foreign
	// and bypasses caching. Empty allows all hosts.
	OriginHost string
}

func (c Classifier) Classify(method string, u *url.URL, accept string) Strategy {
	if method != "" && method != "GET" {
		return StrategyBypass
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return StrategyBypass
	}
	if c.OriginHost != "" && u.Host != "" && u.Host != c.OriginHost {
		return StrategyBypass
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if staticExtensions[ext] {
		return StrategyStatic
	}
	if strings.Contains(u.Path, "/api/") || strings.Contains(u.Path, "/graphql") {
		return StrategyAPI
	}
	if mediaExtensions[ext] {
		return StrategyMedia
	}
	if strings.Contains(accept, "text/html") {
		return StrategyStatic
	}
	return StrategyBypass
}
