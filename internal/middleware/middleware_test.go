package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/baywoodland/woodland/internal/auth"
	"github.com/baywoodland/woodland/internal/config"
	"github.com/baywoodland/woodland/internal/logging"
)

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFromContext(c.UserContext()))
	})

	resp, _ := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	resp, _ = app.Test(req)
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.Header.Get(requestIDHeader) != "fixed-id" || buf.String() != "fixed-id" {
		t.Fatalf("expected incoming id to be reused, got %q %q", resp.Header.Get(requestIDHeader), buf.String())
	}
}

func TestAuditLogsStatusFromErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	app := fiber.New()
	app.Use(RequestID(), Audit(logger, "/healthz"))
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "nope") })
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	_, _ = app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	_, _ = app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], `"level":"WARN"`) || !strings.Contains(lines[0], `"status":404`) || !strings.Contains(lines[0], `"request_id"`) {
		t.Fatalf("unexpected 404 log %s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"DEBUG"`) {
		t.Fatalf("health check should log at debug: %s", lines[1])
	}
}

func TestAdminAuth(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("birch"), bcrypt.MinCost)
	svc, err := auth.NewService(config.AdminConfig{PasswordHash: string(hash), JWTSecret: "s", TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	token, _ := svc.Login("birch")

	app := fiber.New()
	app.Get("/admin", AdminAuth(svc), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(adminSubjectLocal).(string))
	})

	for header, want := range map[string]int{
		"":                             fiber.StatusUnauthorized,
		"Bearer nonsense":              fiber.StatusUnauthorized,
		"Basic abc":                    fiber.StatusUnauthorized,
		"Bearer " + token.AccessToken:  fiber.StatusOK,
		"bearer  " + token.AccessToken: fiber.StatusOK,
	} {
		req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, _ := app.Test(req)
		if resp.StatusCode != want {
			t.Fatalf("%q: expected %d, got %d", header, want, resp.StatusCode)
		}
	}
}

func TestVisitorAuth(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("birch"), bcrypt.MinCost)
	svc, err := auth.NewService(config.AdminConfig{PasswordHash: string(hash), JWTSecret: "s", TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	visitor, _ := svc.IssueVisitor("visitor-1")
	admin, _ := svc.Login("birch")

	app := fiber.New()
	app.Get("/me", VisitorAuth(svc), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(VisitorIDLocal).(string))
	})
	app.Get("/admin", AdminAuth(svc), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	get := func(path, token string) (int, string) {
		req := httptest.NewRequest(fiber.MethodGet, path, nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	if status, body := get("/me", visitor.AccessToken); status != fiber.StatusOK || body != "visitor-1" {
		t.Fatalf("expected visitor-1, got %d %s", status, body)
	}
	if status, _ := get("/me", admin.AccessToken); status != fiber.StatusUnauthorized {
		t.Fatalf("admin token on visitor route: expected 401, got %d", status)
	}
	if status, _ := get("/admin", visitor.AccessToken); status != fiber.StatusUnauthorized {
		t.Fatalf("visitor token on admin route: expected 401, got %d", status)
	}
}

func rateLimitedApp(cache *redis.Client, perHour int) *fiber.App {
	app := fiber.New()
	app.Post("/send-otp", OTPRateLimit(cache, perHour, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func postEmail(t *testing.T, app *fiber.App, email string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/send-otp", strings.NewReader(`{"email":"`+email+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp.StatusCode
}

func TestOTPRateLimitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()
	app := rateLimitedApp(cache, 2)

	for i := 0; i < 2; i++ {
		if status := postEmail(t, app, "a@x.io"); status != fiber.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, status)
		}
	}
	if status := postEmail(t, app, "a@x.io"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if status := postEmail(t, app, "b@x.io"); status != fiber.StatusOK {
		t.Fatalf("other email should pass, got %d", status)
	}

	mr.FastForward(time.Hour)
	if status := postEmail(t, app, "a@x.io"); status != fiber.StatusOK {
		t.Fatalf("expected window to reset, got %d", status)
	}
}

func TestOTPRateLimitRestoresMissingTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()
	app := rateLimitedApp(cache, 2)

	// a counter left behind without an expiry must not lock the email out
	key := otpRateKeyPrefix + "stuck@x.io"
	if err := mr.Set(key, "7"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if status := postEmail(t, app, "stuck@x.io"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected counter ttl to be set, got %s", ttl)
	}

	postEmail(t, app, "fresh@x.io")
	postEmail(t, app, "fresh@x.io")
	mr.FastForward(30 * time.Minute)
	postEmail(t, app, "fresh@x.io")
	if ttl := mr.TTL(otpRateKeyPrefix + "fresh@x.io"); ttl != 30*time.Minute {
		t.Fatalf("window must not slide on later hits, ttl %s", ttl)
	}

	mr.FastForward(time.Hour)
	if status := postEmail(t, app, "stuck@x.io"); status != fiber.StatusOK {
		t.Fatalf("expected lockout to end, got %d", status)
	}
}

func TestOTPVerifyRateLimitIsSeparate(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/send-otp", OTPRateLimit(cache, 1, logging.Discard()), ok)
	app.Post("/verify-otp", OTPVerifyRateLimit(cache, 3, logging.Discard()), ok)

	call := func(path string) int {
		req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(`{"email":"a@x.io","otp":"123456"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		return resp.StatusCode
	}

	if status := call("/send-otp"); status != fiber.StatusOK {
		t.Fatalf("send: expected 200, got %d", status)
	}
	for i := 0; i < 3; i++ {
		if status := call("/verify-otp"); status != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, status)
		}
	}
	if status := call("/verify-otp"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 after 3 attempts, got %d", status)
	}
}

func TestLoginRateLimitIgnoresEmailCase(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/send-otp", LoginRateLimit(cache, 2, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	postEmail(t, app, "walker@x.io")
	postEmail(t, app, "Walker@X.io")
	if status := postEmail(t, app, " WALKER@x.io"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 across email spellings, got %d", status)
	}
	if !mr.Exists(loginRateKeyPrefix + "walker@x.io") {
		t.Fatal("expected login counter under its own prefix")
	}
}

func TestOTPRateLimitInProcess(t *testing.T) {
	app := rateLimitedApp(nil, 1)

	if status := postEmail(t, app, "a@x.io"); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if status := postEmail(t, app, "a@x.io"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
}

func TestErrorHandlerRendersJSON(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Get("/known", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "Email is required") })
	app.Get("/unknown", func(c *fiber.Ctx) error { return io.ErrUnexpectedEOF })

	for path, want := range map[string]struct {
		status int
		body   string
	}{
		"/known":   {fiber.StatusBadRequest, `{"error":"Email is required"}`},
		"/unknown": {fiber.StatusInternalServerError, `{"error":"internal server error"}`},
	} {
		resp, _ := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != want.status || string(body) != want.body {
			t.Fatalf("%s: got %d %s", path, resp.StatusCode, body)
		}
	}
}
