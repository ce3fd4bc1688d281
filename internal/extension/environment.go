// Package extension classifies peer execution contexts by the browser
// hosting them, based on their origin URL and user agent.
package extension

import (
	"net/url"
	"strings"

	"github.com/IMakeBotsForYou/yomitan/internal/message"
)

// Browser identifies the host browser of an extension context.
type Browser string

const (
	BrowserChrome  Browser = "chrome"
	BrowserEdge    Browser = "edge"
	BrowserFirefox Browser = "firefox"
	BrowserSafari  Browser = "safari"
	BrowserUnknown Browser = "unknown"
)

// schemeBrowsers maps extension URL schemes to the browser family they
// belong to. Chromium-based Edge also serves chrome-extension URLs; the user
// agent breaks that tie in Detect.
var schemeBrowsers = map[string]Browser{
	"chrome-extension":     BrowserChrome,
	"moz-extension":        BrowserFirefox,
	"safari-web-extension": BrowserSafari,
	"ms-browser-extension": BrowserEdge,
}

// IsExtensionURL reports whether raw is an extension-internal URL.
func IsExtensionURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	_, ok := schemeBrowsers[u.Scheme]
	return ok
}

// Detect classifies the host browser of a context from its origin URL and
// user agent.
func Detect(origin, userAgent string) Browser {
	u, err := url.Parse(origin)
	if err != nil {
		return BrowserUnknown
	}
	browser, ok := schemeBrowsers[u.Scheme]
	if !ok {
		return BrowserUnknown
	}
	if browser == BrowserChrome && strings.Contains(userAgent, "Edg/") {
		return BrowserEdge
	}
	return browser
}

// Environment describes a peer extension context.
type Environment struct {
	Browser     Browser
	ExtensionID string
}

// FromSender derives the environment of the context behind a message sender.
// The extension ID is the host portion of an extension-internal origin and
// empty otherwise.
func FromSender(s message.Sender) Environment {
	env := Environment{
		Browser: Detect(s.Origin, s.UserAgent),
	}
	if u, err := url.Parse(s.Origin); err == nil {
		if _, ok := schemeBrowsers[u.Scheme]; ok {
			env.ExtensionID = u.Host
		}
	}
	return env
}
