package browser_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"etag/internal/adapters/claimsapi"
	emailPkg "etag/internal/adapters/email"
	"etag/internal/adapters/geocode"
	web "etag/internal/adapters/http"
	"etag/internal/adapters/storage"
	auditStore "etag/internal/adapters/storage/audit"
	noticeStore "etag/internal/adapters/storage/notice"
	sessionStore "etag/internal/adapters/storage/session"
	"etag/internal/config"
)

// fakeUser is one seeded account on the fake claims API.
type fakeUser struct {
	Name     string
	Email    string
	Password string
	Role     string
	Sport    string
	Rates    map[string]float64
}

// fakeTag is one stored geotag row on the fake claims API.
type fakeTag struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address"`
	SessionType string  `json:"sessionType"`
	Rate        float64 `json:"rate"`
	CreatedAt   string  `json:"createdAt"`
}

// fakeClaimsAPI is an in-memory stand-in for the remote claims service.
type fakeClaimsAPI struct {
	mu     sync.Mutex
	users  []fakeUser
	tags   []fakeTag
	nextID int
}

func newFakeClaimsAPI() *fakeClaimsAPI {
	return &fakeClaimsAPI{
		users: []fakeUser{
			{
				Name: "Thandi Nkosi", Email: "coach@test.com", Password: "TestPass123!",
				Role: "User", Sport: "Rugby",
				Rates: map[string]float64{"Preseason": 150, "Practice": 200, "Game": 250},
			},
			{
				Name: "Sipho Dlamini", Email: "admin@test.com", Password: "TestPass123!",
				Role: "Admin",
			},
		},
	}
}

func (f *fakeClaimsAPI) findUser(email, password string) *fakeUser {
	for i := range f.users {
		if f.users[i].Email == email && f.users[i].Password == password {
			return &f.users[i]
		}
	}
	return nil
}

func (f *fakeClaimsAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /Auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		u := f.findUser(body.Email, body.Password)
		f.mu.Unlock()
		if u == nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid email or password."})
			return
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"email": u.Email,
			"name":  u.Name,
			"role":  u.Role,
			"exp":   time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("fake-secret"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})

	mux.HandleFunc("POST /Auth/register", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "Registration successful!"})
	})

	mux.HandleFunc("GET /Auth/getallusers", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := make([]map[string]any, 0, len(f.users))
		for _, u := range f.users {
			out = append(out, map[string]any{
				"name": u.Name, "email": u.Email, "role": u.Role, "sport": u.Sport,
				"preseasonRate": u.Rates["Preseason"],
				"practiceRate":  u.Rates["Practice"],
				"gameRate":      u.Rates["Game"],
			})
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("GET /GeoTag", func(w http.ResponseWriter, r *http.Request) {
		email := tokenEmail(r)
		if email == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if filter := r.URL.Query().Get("email"); filter != "" {
			email = filter
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		out := []fakeTag{}
		for _, tag := range f.tags {
			if tag.Email == email {
				out = append(out, tag)
			}
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("POST /GeoTag", func(w http.ResponseWriter, r *http.Request) {
		email := tokenEmail(r)
		if email == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
			Address     string  `json:"address"`
			SessionType string  `json:"sessionType"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		var rate float64
		for _, u := range f.users {
			if u.Email == email {
				rate = u.Rates[body.SessionType]
			}
		}
		f.nextID++
		f.tags = append(f.tags, fakeTag{
			ID:          fmt.Sprintf("t%d", f.nextID),
			Email:       email,
			Latitude:    body.Latitude,
			Longitude:   body.Longitude,
			Address:     body.Address,
			SessionType: body.SessionType,
			Rate:        rate,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		})
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("GET /GeoTag/claimants", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		type agg struct {
			Name          string  `json:"name"`
			Email         string  `json:"email"`
			TotalSessions int     `json:"totalSessions"`
			NetTotal      float64 `json:"netTotal"`
		}
		byEmail := map[string]*agg{}
		for _, tag := range f.tags {
			a, ok := byEmail[tag.Email]
			if !ok {
				name := tag.Email
				for _, u := range f.users {
					if u.Email == tag.Email {
						name = u.Name
					}
				}
				a = &agg{Name: name, Email: tag.Email}
				byEmail[tag.Email] = a
			}
			a.TotalSessions++
			a.NetTotal += tag.Rate
		}
		out := []agg{}
		for _, a := range byEmail {
			out = append(out, *a)
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("DELETE /GeoTag/clear", func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		f.mu.Lock()
		defer f.mu.Unlock()
		kept := f.tags[:0]
		for _, tag := range f.tags {
			if tag.Email != email {
				kept = append(kept, tag)
			}
		}
		f.tags = kept
		json.NewEncoder(w).Encode(map[string]string{"message": "Claims cleared."})
	})

	return mux
}

// tokenEmail extracts the email claim from the bearer token without
// verification, matching how the fake issues tokens.
func tokenEmail(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimPrefix(auth, "Bearer "), claims); err != nil {
		return ""
	}
	if email, ok := claims["email"].(string); ok {
		return email
	}
	return ""
}

// testApp holds the running test server, fake API, and Playwright handles.
type testApp struct {
	BaseURL string
	API     *fakeClaimsAPI
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// newTestApp wires the full app against a fake claims API and a temp
// SQLite DB, and starts a real HTTP server for the browser to drive.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to initialize test DB: %v", err)
	}

	fakeAPI := newFakeClaimsAPI()
	apiServer := httptest.NewServer(fakeAPI.handler())

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	cfg := config.New()
	cfg.Addr = fmt.Sprintf("127.0.0.1:%d", port)
	cfg.APIBaseURL = apiServer.URL

	mux := web.NewMux(*cfg, &web.Deps{
		API:      claimsapi.New(apiServer.URL, apiServer.Client()),
		Geocoder: geocode.Static{Address: "12 Oval Rd, Pretoria"},
		Sessions: sessionStore.NewSQLiteStore(db),
		Notices:  noticeStore.NewSQLiteStore(db),
		Audit:    auditStore.NewSQLiteStore(db),
		Email:    emailPkg.NewNoopSender(),
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	baseURL := "http://" + cfg.Addr
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/login")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		API:     fakeAPI,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		apiServer.Close()
		db.Close()
	})

	return app
}

// newPage creates a browser page with geolocation granted at the given fix.
func (a *testApp) newPage(t *testing.T, lat, lng float64) playwright.Page {
	t.Helper()
	ctx, err := a.Browser.NewContext(playwright.BrowserNewContextOptions{
		Geolocation: &playwright.Geolocation{Latitude: lat, Longitude: lng},
		Permissions: []string{"geolocation"},
	})
	if err != nil {
		t.Fatalf("failed to create browser context: %v", err)
	}
	page, err := ctx.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() {
		page.Close()
		ctx.Close()
	})
	return page
}

// login signs in through the login form and waits for the landing page.
func (a *testApp) login(t *testing.T, page playwright.Page, email, password, landing string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=email]").Fill(email); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill(password); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+landing, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to %s: %v", landing, err)
	}
}
