package handler

import "net/http"

const flashCookieName = "scribble_flash"

const (
	flashLoggedIn       = "logged_in"
	flashAccountCreated = "account_created"
)

// The flash cookie carries one of these keys, never message text.
var flashMessages = map[string]string{
	flashLoggedIn:       "Logged in Successfully!",
	flashAccountCreated: "Account created!",
}

// setFlash queues a one-shot message for the next page render.
func setFlash(w http.ResponseWriter, r *http.Request, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

// popFlash returns the queued message, if any, and clears it. It must run
// before the response header is written.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return flashMessages[cookie.Value]
}
