package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"etag/internal/adapters/claimsapi"
	"etag/internal/adapters/http/middleware"
	noticeStore "etag/internal/adapters/storage/notice"
	"etag/internal/application/orchestrators"
	"etag/internal/application/projections"
	"etag/internal/domain/claim"
	"etag/internal/domain/export"
	"etag/internal/domain/location"
	noticeDomain "etag/internal/domain/notice"
)

// timeNow is a variable for testability.
var timeNow = time.Now

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// clientIP returns the originating client address, honouring the first
// X-Forwarded-For hop when the app runs behind a proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// tzCookieName remembers the viewer's IANA timezone between page loads.
const tzCookieName = "etag_tz"

// viewerLocation maps a browser-reported IANA zone name to a
// *time.Location. Absent or unknown names fall back to the server zone.
func viewerLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// viewerLocationFromRequest reads the timezone cookie set by the geotag page.
func viewerLocationFromRequest(r *http.Request) *time.Location {
	if c, err := r.Cookie(tzCookieName); err == nil {
		return viewerLocation(c.Value)
	}
	return time.Local
}

// forceLogout destroys the session and bounces to login. Called whenever
// the remote API answers 401/403: the local session is only as good as the
// bearer token inside it.
func forceLogout(w http.ResponseWriter, r *http.Request) {
	if sid := middleware.SessionIDFromRequest(r); sid != "" {
		if err := orchestrators.ExecuteLogout(r.Context(), sid, orchestrators.LogoutDeps{Sessions: deps.Sessions}); err != nil {
			slog.Error("event", "event", "forced_logout_cleanup_failed", "error", err)
		}
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login?expired=1", http.StatusSeeOther)
}

// handleAPIError maps a remote API failure to a response. Returns true when
// the response has been written.
func handleAPIError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, claimsapi.ErrUnauthorized) {
		forceLogout(w, r)
		return true
	}
	internalError(w, err)
	return true
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	role := ""
	email := ""
	name := ""
	if ok {
		role = sess.Role
		email = sess.Email
		name = sess.DisplayName
	}

	funcMap := template.FuncMap{
		"currentRole":  func() string { return role },
		"currentEmail": func() string { return email },
		"currentName":  func() string { return name },
		"isLoggedIn":   func() bool { return email != "" },
		"isAdmin":      func() bool { return middleware.IsAdminRole(role) },
		"csrfToken":    func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"noticeColorHex": func(color string) string {
			if hex, ok := noticeDomain.ColorHex[color]; ok {
				return hex
			}
			return noticeDomain.ColorHex[noticeDomain.ColorOrange]
		},
		"fmtDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"fmtDateTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"fmtMoney": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 2, 64)
		},
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS,
		"templates/layout.html", "templates/"+templateName)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		slog.Error("render_error", "template", templateName, "error", err)
	}
}

// redirectByRole sends an authenticated user to their landing page.
func redirectByRole(w http.ResponseWriter, r *http.Request, role string) {
	if middleware.IsAdminRole(role) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/geotag", http.StatusSeeOther)
}

// --- Auth pages ---

func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		redirectByRole(w, r, sess.Role)
		return
	}

	message := ""
	if r.URL.Query().Get("registered") == "1" {
		message = "Registration successful. Please sign in."
	}
	if r.URL.Query().Get("expired") == "1" {
		message = "Your session has expired. Please sign in again."
	}
	renderTemplate(w, r, "login.html", map[string]any{
		"Title":   "Sign in",
		"Message": message,
	})
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}, orchestrators.LoginDeps{API: deps.API, Sessions: deps.Sessions, Now: timeNow})
	if err != nil {
		msg := "Invalid email or password."
		if errors.Is(err, orchestrators.ErrNoIdentity) {
			msg = "Sign-in succeeded but the account could not be identified."
		}
		w.WriteHeader(http.StatusUnauthorized)
		renderTemplate(w, r, "login.html", map[string]any{
			"Title": "Sign in",
			"Error": msg,
			"Email": r.PostFormValue("email"),
		})
		return
	}

	middleware.SetSessionCookie(w, res.SessionID)
	redirectByRole(w, r, res.Role)
}

func handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		redirectByRole(w, r, sess.Role)
		return
	}
	renderTemplate(w, r, "register.html", map[string]any{"Title": "Register"})
}

func handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	input := orchestrators.RegisterInput{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if _, err := orchestrators.ExecuteRegister(r.Context(), input, orchestrators.RegisterDeps{API: deps.API}); err != nil {
		msg := "Registration failed. Please try again."
		if errors.Is(err, orchestrators.ErrIncompleteRegistration) {
			msg = "Name, email and password are all required."
		}
		var apiErr *claimsapi.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		w.WriteHeader(http.StatusBadRequest)
		renderTemplate(w, r, "register.html", map[string]any{
			"Title": "Register",
			"Error": msg,
			"Name":  input.Name,
			"Email": input.Email,
		})
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sid := middleware.SessionIDFromRequest(r); sid != "" {
		if err := orchestrators.ExecuteLogout(r.Context(), sid, orchestrators.LogoutDeps{Sessions: deps.Sessions}); err != nil {
			slog.Error("event", "event", "logout_failed", "error", err)
		}
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// --- Coach pages ---

func handleGeotagPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	view, err := projections.QueryGetClaims(r.Context(), projections.GetClaimsQuery{
		Token:    sess.APIToken,
		Location: viewerLocationFromRequest(r),
	}, projections.GetClaimsDeps{API: deps.API, Now: timeNow})
	if handleAPIError(w, r, err) {
		return
	}

	notices, err := projections.QueryGetNotices(r.Context(), projections.GetNoticesDeps{
		Notices: deps.Notices,
		Now:     timeNow,
	})
	if err != nil {
		// The page is still useful without announcements.
		slog.Error("event", "event", "notice_list_failed", "error", err)
	}

	renderTemplate(w, r, "geotag.html", map[string]any{
		"Title":        "My claims",
		"Tags":         view.Tags,
		"Summary":      view.Summary,
		"TaggedToday":  view.TaggedToday,
		"Notices":      notices,
		"SessionTypes": claim.ValidTypes,
		"Error":        r.URL.Query().Get("error"),
		"Warning":      r.URL.Query().Get("warning"),
		"Message":      r.URL.Query().Get("message"),
	})
}

func handleTagSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	// Absent or unparsable coordinates mean the browser could not provide
	// a position; the orchestrator falls back to the default fix.
	var fix *location.Fix
	lat, latErr := strconv.ParseFloat(r.PostFormValue("latitude"), 64)
	lng, lngErr := strconv.ParseFloat(r.PostFormValue("longitude"), 64)
	if latErr == nil && lngErr == nil {
		fix = &location.Fix{Latitude: lat, Longitude: lng}
	}

	loc := viewerLocationFromRequest(r)
	if tz := r.PostFormValue("tz"); tz != "" {
		loc = viewerLocation(tz)
	}

	res, err := orchestrators.ExecuteTagSession(r.Context(), orchestrators.TagSessionInput{
		Email:       sess.Email,
		Token:       sess.APIToken,
		SessionType: r.PostFormValue("session_type"),
		Fix:         fix,
		ClientIP:    clientIP(r),
		Location:    loc,
	}, orchestrators.TagSessionDeps{
		API:      deps.API,
		Geocoder: deps.Geocoder,
		Fallback: location.Fix{Latitude: appConfig.DefaultLatitude, Longitude: appConfig.DefaultLongitude},
		Now:      timeNow,
	})
	if err != nil {
		switch {
		case errors.Is(err, claimsapi.ErrUnauthorized):
			forceLogout(w, r)
		case errors.Is(err, orchestrators.ErrAlreadyTagged):
			http.Redirect(w, r, "/geotag?error="+url.QueryEscape("You have already tagged a session today."), http.StatusSeeOther)
		case errors.Is(err, claim.ErrInvalidSessionType):
			http.Redirect(w, r, "/geotag?error="+url.QueryEscape("Please pick a valid session type."), http.StatusSeeOther)
		case errors.Is(err, location.ErrGeocode):
			http.Redirect(w, r, "/geotag?error="+url.QueryEscape("Failed to fetch address. Please try again."), http.StatusSeeOther)
		default:
			http.Redirect(w, r, "/geotag?error="+url.QueryEscape("Could not record the session. Please try again."), http.StatusSeeOther)
		}
		return
	}

	target := "/geotag?message=" + url.QueryEscape("Session tagged at "+res.Address)
	if res.Warning != "" {
		target += "&warning=" + url.QueryEscape(res.Warning)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func handleExportOwn(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	view, err := projections.QueryGetClaims(r.Context(), projections.GetClaimsQuery{
		Token:    sess.APIToken,
		Location: viewerLocationFromRequest(r),
	}, projections.GetClaimsDeps{API: deps.API, Now: timeNow})
	if handleAPIError(w, r, err) {
		return
	}

	name := sess.DisplayName
	if name == "" {
		name = sess.Email
	}
	writeWorkbook(w, r, view.Tags, view.Summary, name)
}

// --- Admin pages ---

func handleAdminClaimants(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	view, err := projections.QueryGetClaimants(r.Context(), sess.APIToken,
		projections.GetClaimantsDeps{API: deps.API})
	if handleAPIError(w, r, err) {
		return
	}

	renderTemplate(w, r, "admin_claimants.html", map[string]any{
		"Title":         "Claimants",
		"Claimants":     view.Claimants,
		"TotalSessions": view.TotalSessions,
		"TotalOwed":     view.TotalOwed,
		"Message":       r.URL.Query().Get("message"),
	})
}

func handleAdminUserClaims(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	targetEmail := r.URL.Query().Get("email")
	if targetEmail == "" {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	view, err := projections.QueryGetUserClaims(r.Context(), projections.GetUserClaimsQuery{
		Token:       sess.APIToken,
		TargetEmail: targetEmail,
		DisplayName: r.URL.Query().Get("name"),
	}, projections.GetUserClaimsDeps{API: deps.API})
	if handleAPIError(w, r, err) {
		return
	}

	renderTemplate(w, r, "admin_claims.html", map[string]any{
		"Title":       view.DisplayName + " claims",
		"TargetEmail": view.Email,
		"DisplayName": view.DisplayName,
		"Tags":        view.Tags,
		"Summary":     view.Summary,
	})
}

func handleAdminExport(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	targetEmail := r.URL.Query().Get("email")
	if targetEmail == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	view, err := projections.QueryGetUserClaims(r.Context(), projections.GetUserClaimsQuery{
		Token:       sess.APIToken,
		TargetEmail: targetEmail,
		DisplayName: r.URL.Query().Get("name"),
	}, projections.GetUserClaimsDeps{API: deps.API})
	if handleAPIError(w, r, err) {
		return
	}

	writeWorkbook(w, r, view.Tags, view.Summary, view.DisplayName)
}

func handleAdminClear(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	targetEmail := r.PostFormValue("email")
	if targetEmail == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	res, err := orchestrators.ExecuteClearClaims(r.Context(), orchestrators.ClearClaimsInput{
		Token:       sess.APIToken,
		TargetEmail: targetEmail,
		TargetName:  r.PostFormValue("name"),
		ActorEmail:  sess.Email,
		ActorRole:   sess.Role,
		ClientIP:    clientIP(r),
		UserAgent:   r.UserAgent(),
	}, orchestrators.ClearClaimsDeps{
		API:   deps.API,
		Audit: deps.Audit,
		Email: deps.Email,
		Now:   timeNow,
	})
	if handleAPIError(w, r, err) {
		return
	}

	msg := "Cleared " + strconv.Itoa(res.Sessions) + " claims for " + targetEmail
	http.Redirect(w, r, "/admin?message="+url.QueryEscape(msg), http.StatusSeeOther)
}

func handleAdminCoaches(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	view, err := projections.QueryGetCoaches(r.Context(), projections.GetCoachesQuery{
		Token: sess.APIToken,
		Sport: r.URL.Query().Get("sport"),
	}, projections.GetCoachesDeps{API: deps.API})
	if handleAPIError(w, r, err) {
		return
	}

	renderTemplate(w, r, "admin_coaches.html", map[string]any{
		"Title":   "Coaches",
		"Coaches": view.Coaches,
		"Sports":  view.Sports,
		"Sport":   view.Sport,
	})
}

func handleAdminNoticePage(w http.ResponseWriter, r *http.Request) {
	notices, err := deps.Notices.List(r.Context(), noticeStore.ListFilter{})
	if err != nil {
		internalError(w, err)
		return
	}

	renderTemplate(w, r, "admin_notice.html", map[string]any{
		"Title":   "Announcements",
		"Notices": notices,
		"Colors":  noticeDomain.ValidColors,
		"Error":   r.URL.Query().Get("error"),
		"Message": r.URL.Query().Get("message"),
	})
}

func handleAdminNoticePost(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	_, err := orchestrators.ExecutePostNotice(r.Context(), orchestrators.PostNoticeInput{
		Title:      strings.TrimSpace(r.PostFormValue("title")),
		Content:    r.PostFormValue("content"),
		Color:      r.PostFormValue("color"),
		ShowAuthor: r.PostFormValue("show_author") == "on",
		Pinned:     r.PostFormValue("pinned") == "on",
		ActorEmail: sess.Email,
		ActorName:  sess.DisplayName,
		ActorRole:  sess.Role,
		ClientIP:   clientIP(r),
		UserAgent:  r.UserAgent(),
	}, orchestrators.PostNoticeDeps{
		Notices: deps.Notices,
		Audit:   deps.Audit,
		Now:     timeNow,
	})
	if err != nil {
		http.Redirect(w, r, "/admin/notice?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin/notice?message="+url.QueryEscape("Announcement posted."), http.StatusSeeOther)
}

func handleAdminNoticeDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	id := r.PostFormValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := deps.Notices.Delete(r.Context(), id); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/admin/notice?message="+url.QueryEscape("Announcement removed."), http.StatusSeeOther)
}

// writeWorkbook builds the spreadsheet and streams it as a download. Any
// build failure aborts before the first body byte; no partial file leaves
// the server.
func writeWorkbook(w http.ResponseWriter, r *http.Request, tags []claim.Tag, summary claim.Summary, displayName string) {
	data, err := export.BuildWorkbook(tags, summary, displayName)
	if err != nil {
		internalError(w, err)
		return
	}

	filename := export.Filename(displayName, timeNow())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Error("event", "event", "export_write_failed", "error", err)
	}
}
