package middleware

import (
	"crypto/sha256"
	"io"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/hkdf"
)

const SessionName = "inkpost_session"

// Sessions installs a signed and encrypted cookie session. Both keys are
// derived from secret so a single SESSION_SECRET is enough.
func Sessions(secret string, secure bool) gin.HandlerFunc {
	authKey, encKey := deriveSessionKeys(secret)

	store := cookie.NewStore(authKey, encKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(SessionName, store)
}

func deriveSessionKeys(secret string) (authKey, encKey []byte) {
	kdf := hkdf.New(sha256.New, []byte(secret), []byte(SessionName), []byte("cookie session keys"))
	authKey = make([]byte, 32)
	encKey = make([]byte, 32)
	if _, err := io.ReadFull(kdf, authKey); err != nil {
		panic(err)
	}
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		panic(err)
	}
	return authKey, encKey
}
