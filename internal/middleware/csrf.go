package middleware

import (
	"crypto/subtle"
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const oauthStateKey = "oauth_state"

var ErrOAuthStateMismatch = errors.New("oauth state mismatch")

// SaveOAuthState remembers the state handed to the OAuth provider in the
// session cookie so the callback can be tied to the browser that started it
func SaveOAuthState(c *gin.Context, state string) error {
	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	return session.Save()
}

// ConsumeOAuthState compares the callback state with the stored one and
// clears it, so a state value is accepted at most once
func ConsumeOAuthState(c *gin.Context, state string) error {
	session := sessions.Default(c)
	stored, _ := session.Get(oauthStateKey).(string)
	session.Delete(oauthStateKey)
	if err := session.Save(); err != nil {
		return err
	}

	if stored == "" || state == "" ||
		subtle.ConstantTimeCompare([]byte(stored), []byte(state)) != 1 {
		return ErrOAuthStateMismatch
	}
	return nil
}
