package realtime

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markb/sbrt/internal/log"
)

// SetAuth stores an access token for subsequent joins and, when connected,
// sends an access_token refresh envelope on every joined topic. The token
// is parsed without signature verification, since verification is the
// server's concern, but an already-expired token is rejected.
func (c *Client) SetAuth(token string) error {
	if token == "" {
		return fmt.Errorf("realtime: empty access token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("realtime: invalid access token: %w", err)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
		return fmt.Errorf("realtime: access token is expired")
	}

	c.mu.Lock()
	c.authToken = token
	c.mu.Unlock()

	if !c.IsConnected() {
		return nil
	}
	for _, topic := range c.registry.topics() {
		if err := c.send(NewAccessTokenMessage(topic, c.nextRef(), token)); err != nil {
			return fmt.Errorf("realtime: access token send failed: %w", err)
		}
	}
	log.Debug("realtime: access token refreshed", "topics", len(c.registry.topics()))
	return nil
}
