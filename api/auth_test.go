package api_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/medsync-org/medsync/api"
)

const testSecret = "test-secret"

var _ = Describe("Auth Middleware", func() {
	var e *echo.Echo
	var captured *api.Auth

	BeforeEach(func() {
		captured = nil
		e = echo.New()
		e.Use(api.NewAuthMiddleware(testSecret, api.AuthMiddlewareOpts{
			Skipper: api.RouteSkipper([]string{"/ready"}),
		}))
		e.GET("/protected", func(c echo.Context) error {
			captured = api.GetAuthData(c.Request().Context())
			return c.NoContent(http.StatusOK)
		})
		e.GET("/ready", func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
	})

	signToken := func(claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		Expect(err).ToNot(HaveOccurred())
		return token
	}

	request := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	It("extracts the subject and role from a valid token", func() {
		token := signToken(jwt.MapClaims{
			"sub":  "clinician-1",
			"role": "clinician",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		rec := request("/protected", token)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(captured).ToNot(BeNil())
		Expect(captured.SubjectId).To(Equal("clinician-1"))
		Expect(captured.Role).To(Equal("clinician"))
	})

	It("rejects requests without a bearer token", func() {
		rec := request("/protected", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects expired tokens", func() {
		token := signToken(jwt.MapClaims{
			"sub": "clinician-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		rec := request("/protected", token)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects tokens signed with a different secret", func() {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "clinician-1",
		}).SignedString([]byte("other-secret"))
		Expect(err).ToNot(HaveOccurred())

		rec := request("/protected", token)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects tokens without a subject", func() {
		token := signToken(jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		rec := request("/protected", token)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("skips authentication for skipped routes", func() {
		rec := request("/ready", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
