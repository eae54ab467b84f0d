package web

import (
	"net/http"

	"etag/internal/adapters/http/middleware"
)

// registerRoutes attaches all handlers to the mux. Auth context is set by
// the middleware chain; RequireAuth/RequireAdmin gate the protected pages.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handleRoot)

	mux.HandleFunc("GET /login", handleLoginPage)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("GET /register", handleRegisterPage)
	mux.HandleFunc("POST /register", handleRegister)
	mux.HandleFunc("POST /logout", handleLogout)

	mux.Handle("GET /geotag", middleware.RequireAuth(http.HandlerFunc(handleGeotagPage)))
	mux.Handle("POST /geotag/tag", middleware.RequireAuth(http.HandlerFunc(handleTagSession)))
	mux.Handle("GET /geotag/export", middleware.RequireAuth(http.HandlerFunc(handleExportOwn)))

	mux.Handle("GET /admin", middleware.RequireAdmin(http.HandlerFunc(handleAdminClaimants)))
	mux.Handle("GET /admin/claims", middleware.RequireAdmin(http.HandlerFunc(handleAdminUserClaims)))
	mux.Handle("GET /admin/claims/export", middleware.RequireAdmin(http.HandlerFunc(handleAdminExport)))
	mux.Handle("POST /admin/clear", middleware.RequireAdmin(http.HandlerFunc(handleAdminClear)))
	mux.Handle("GET /admin/coaches", middleware.RequireAdmin(http.HandlerFunc(handleAdminCoaches)))
	mux.Handle("GET /admin/notice", middleware.RequireAdmin(http.HandlerFunc(handleAdminNoticePage)))
	mux.Handle("POST /admin/notice", middleware.RequireAdmin(http.HandlerFunc(handleAdminNoticePost)))
	mux.Handle("POST /admin/notice/delete", middleware.RequireAdmin(http.HandlerFunc(handleAdminNoticeDelete)))
}

// handleRoot routes by role: admins to the claimant list, coaches to the
// tagging page, anonymous visitors to login.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if middleware.IsAdminRole(sess.Role) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/geotag", http.StatusSeeOther)
}
