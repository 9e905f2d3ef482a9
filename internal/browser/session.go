// internal/browser/session.go
package browser

import (
	"fmt"
	"strings"
)

// Open starts a session with the configured driver.
func Open(config *BrowserConfig) (Session, error) {
	if config == nil {
		config = DefaultBrowserConfig()
	}
	switch strings.ToLower(config.Driver) {
	case "", DriverChromedp:
		return NewChromeSession(config)
	case DriverRod:
		return NewRodSession(config)
	default:
		return nil, fmt.Errorf("unsupported browser driver: %s", config.Driver)
	}
}
