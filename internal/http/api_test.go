package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"secureapp/internal/password"
	"secureapp/internal/repository/memory"
	"secureapp/internal/service"
	"secureapp/internal/token"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	authSvc := service.NewAuthService(
		memory.NewUserRepository(),
		password.NewBcryptHasher(bcrypt.MinCost),
		token.NewService([]byte("api-secret"), time.Hour),
		time.Hour,
	)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	NewHandler(authSvc, logger).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signUpBob(t *testing.T, router *gin.Engine) (id, tok string) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", gin.H{
		"email":      "bob@example.com",
		"password":   "Passw0rd!",
		"first_name": "Bob",
		"last_name":  "X",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bob@example.com", resp.User.Email)
	require.NotEmpty(t, resp.User.ID)
	require.NotEmpty(t, resp.Token)
	return resp.User.ID, resp.Token
}

func TestSignUpAndSignIn(t *testing.T) {
	router := newTestRouter(t)
	id, _ := signUpBob(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signin", gin.H{
		"email":    "bob@example.com",
		"password": "Passw0rd!",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, id, resp.User.ID)
}

func TestSignUpDuplicateConflict(t *testing.T) {
	router := newTestRouter(t)
	signUpBob(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", gin.H{
		"email":    "BOB@example.com",
		"password": "Other1234",
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignInBadCredentials(t *testing.T) {
	router := newTestRouter(t)
	signUpBob(t, router)

	wrongPass := doJSON(t, router, http.MethodPost, "/api/auth/signin", gin.H{
		"email":    "bob@example.com",
		"password": "wrong",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, wrongPass.Code)

	noUser := doJSON(t, router, http.MethodPost, "/api/auth/signin", gin.H{
		"email":    "nobody@example.com",
		"password": "Passw0rd!",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, noUser.Code)

	require.Equal(t, wrongPass.Body.String(), noUser.Body.String())
}

func TestMeRequiresAuth(t *testing.T) {
	router := newTestRouter(t)
	_, tok := signUpBob(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/me", nil, map[string]string{
		"Authorization": "Bearer garbage",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/me", nil, map[string]string{
		"Authorization": "Bearer " + tok,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var user struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "bob@example.com", user.Email)
	require.Equal(t, "Bob", user.FirstName)
	require.NotContains(t, rec.Body.String(), "password")
}

func TestUpdateProfile(t *testing.T) {
	router := newTestRouter(t)
	_, tok := signUpBob(t, router)

	rec := doJSON(t, router, http.MethodPut, "/api/profile", gin.H{
		"last_name": "Y",
	}, map[string]string{"Authorization": "Bearer " + tok})
	require.Equal(t, http.StatusOK, rec.Code)

	var user struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "Y", user.LastName)
	require.Equal(t, "Bob", user.FirstName)
}

func TestResetPassword(t *testing.T) {
	router := newTestRouter(t)
	signUpBob(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/reset-password", gin.H{
		"email": "bob@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "ticket", "reset ticket must not leak in the response")

	rec = doJSON(t, router, http.MethodPost, "/api/auth/reset-password", gin.H{
		"email": "nobody@example.com",
	}, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignOut(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/auth/signout", nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
