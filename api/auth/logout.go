package auth

import (
	"net/http"

	"dutchthrift_server/lib"

	"github.com/MonkyMars/gecho"
)

// HandleLogout revokes the presented token, if any, and clears the cookie.
// It always succeeds for the client.
func (arm *AuthRoutesManager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, err := lib.ExtractClaims(r, arm.authService.GetAccessTokenSecret())
	lib.ClearCookie(w, lib.AccessCookieName, arm.secureCookies(), arm.cfg.Auth.CookieDomain)
	if err != nil {
		gecho.Success(w, gecho.WithMessage("No active session"), gecho.Send())
		return
	}

	if err := arm.authService.Logout(r.Context(), claims); err != nil {
		arm.logger.Error("Failed to revoke access token during logout",
			gecho.Field("error", err),
			gecho.Field("customer_id", claims.Sub),
		)
	}

	gecho.Success(w,
		gecho.WithMessage("Logged out successfully"),
		gecho.Send(),
	)
}
