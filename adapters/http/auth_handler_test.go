package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/khoahotran/account-service/adapters/event"
	authUC "github.com/khoahotran/account-service/internal/application/usecase/auth"
	"github.com/khoahotran/account-service/internal/domain/account"
	"github.com/khoahotran/account-service/pkg/auth"
	"github.com/khoahotran/account-service/pkg/logger"
)

const (
	allowedOrigin = "http://localhost:5173"
	otherOrigin   = "http://localhost:3000"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

type memoryAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]account.Account
}

func (r *memoryAccountRepo) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return &a, nil
}

func (r *memoryAccountRepo) Save(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.Email]; ok {
		return fmt.Errorf("save: %w", account.ErrEmailTaken)
	}
	r.accounts[a.Email] = *a
	return nil
}

type stubUploader struct {
	err error
}

func (u *stubUploader) Upload(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	return "https://img.example.com/" + folder + "/" + publicID + ".jpg", nil
}

func (u *stubUploader) Delete(context.Context, string, string) error { return nil }

type AuthHandlerTestSuite struct {
	suite.Suite
	Router   *gin.Engine
	repo     *memoryAccountRepo
	uploader *stubUploader
}

func (s *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	s.repo = &memoryAccountRepo{accounts: make(map[string]account.Account)}
	s.uploader = &stubUploader{}
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	signupUseCase := authUC.NewSignupUseCase(s.repo, hasher, s.uploader, event.NoopPublisher{Logger: log}, "user_photos", log)
	loginUseCase := authUC.NewLoginUseCase(s.repo, hasher, log)
	authHandler := NewAuthHandler(signupUseCase, loginUseCase, log)

	s.Router = NewRouter(authHandler, []string{allowedOrigin, otherOrigin}, log)
}

func TestAuthHandler(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func signupRequest(t *testing.T, fields map[string]string, photo []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if photo != nil {
		part, err := w.CreateFormFile("photo", "ana.jpg")
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/signup", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func loginJSON(email, password string) *http.Request {
	body, _ := json.Marshal(gin.H{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func anaFields() map[string]string {
	return map[string]string{"name": "Ana", "email": "ana@x.com", "password": "longpass1"}
}

func (s *AuthHandlerTestSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func (s *AuthHandlerTestSuite) Test_EndToEnd() {
	rr := s.serve(signupRequest(s.T(), anaFields(), jpegBytes))
	s.Equal(http.StatusCreated, rr.Code)
	s.Equal("User registered successfully", decode(s.T(), rr)["message"])

	rr = s.serve(loginJSON("ana@x.com", "wrong"))
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal("Invalid email or password", decode(s.T(), rr)["message"])

	rr = s.serve(loginJSON("ana@x.com", "longpass1"))
	s.Equal(http.StatusOK, rr.Code)

	var resp LoginResponse
	s.NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal("Login successful", resp.Message)
	s.Equal("ana@x.com", resp.User.Email)
	s.Equal("Ana", resp.User.Name)

	stored, err := s.repo.FindByEmail(context.Background(), "ana@x.com")
	s.NoError(err)
	s.Equal(stored.PhotoURL, resp.User.PhotoURL)

	raw := rr.Body.String()
	s.NotContains(raw, "password")
	s.NotContains(raw, stored.PasswordHash)
	s.NotContains(raw, "longpass1")
}

func (s *AuthHandlerTestSuite) Test_Login_FormBody() {
	s.Equal(http.StatusCreated, s.serve(signupRequest(s.T(), anaFields(), jpegBytes)).Code)

	form := url.Values{"email": {"ana@x.com"}, "password": {"longpass1"}}
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := s.serve(req)
	s.Equal(http.StatusOK, rr.Code)
	user := decode(s.T(), rr)["user"].(map[string]any)
	s.Equal("ana@x.com", user["email"])
	s.Contains(user, "photoUrl")
}

func (s *AuthHandlerTestSuite) Test_Login_Errors() {
	s.Equal(http.StatusCreated, s.serve(signupRequest(s.T(), anaFields(), jpegBytes)).Code)

	rr := s.serve(loginJSON("nobody@x.com", "longpass1"))
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal("User not found", decode(s.T(), rr)["message"])

	rr = s.serve(loginJSON("ana@x.com", ""))
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("All fields are required", decode(s.T(), rr)["message"])

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	s.Equal(http.StatusBadRequest, s.serve(req).Code)
}

func (s *AuthHandlerTestSuite) Test_Signup_ValidationErrors() {
	tests := []struct {
		name    string
		fields  map[string]string
		photo   []byte
		message string
	}{
		{"no photo", anaFields(), nil, "All fields are required"},
		{"empty photo", anaFields(), []byte{}, "All fields are required"},
		{"no name", map[string]string{"email": "ana@x.com", "password": "longpass1"}, jpegBytes, "All fields are required"},
		{"double at", map[string]string{"name": "Bob", "email": "bob@@x", "password": "longpass1"}, jpegBytes, "Invalid email format"},
		{"no at", map[string]string{"name": "Bob", "email": "bob.com", "password": "longpass1"}, jpegBytes, "Invalid email format"},
		{"short password", map[string]string{"name": "Ana", "email": "ana@x.com", "password": "short"}, jpegBytes, "Password must be at least 8 characters long"},
		{"password over 72 bytes", map[string]string{"name": "Ana", "email": "ana@x.com", "password": strings.Repeat("a", 80)}, jpegBytes, "Password must be at most 72 bytes long"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rr := s.serve(signupRequest(s.T(), tt.fields, tt.photo))
			s.Equal(http.StatusBadRequest, rr.Code)
			body := decode(s.T(), rr)
			s.Equal(tt.message, body["message"])
			s.NotContains(body, "error")
		})
	}
	s.Empty(s.repo.accounts)
}

func (s *AuthHandlerTestSuite) Test_Signup_LongestPassword() {
	password := strings.Repeat("a", 72)
	fields := map[string]string{"name": "Ana", "email": "ana@x.com", "password": password}

	s.Equal(http.StatusCreated, s.serve(signupRequest(s.T(), fields, jpegBytes)).Code)
	s.Equal(http.StatusOK, s.serve(loginJSON("ana@x.com", password)).Code)
	s.Equal(http.StatusUnauthorized, s.serve(loginJSON("ana@x.com", password+"a")).Code)
}

func (s *AuthHandlerTestSuite) Test_Signup_DuplicateEmail() {
	s.Equal(http.StatusCreated, s.serve(signupRequest(s.T(), anaFields(), jpegBytes)).Code)

	other := map[string]string{"name": "Other", "email": "ana@x.com", "password": "anotherpass"}
	rr := s.serve(signupRequest(s.T(), other, jpegBytes))

	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("Email already registered", decode(s.T(), rr)["message"])
}

func (s *AuthHandlerTestSuite) Test_Signup_UploadFailure() {
	s.uploader.err = errors.New("cloudinary: 503 service unavailable")

	rr := s.serve(signupRequest(s.T(), anaFields(), jpegBytes))

	s.Equal(http.StatusInternalServerError, rr.Code)
	body := decode(s.T(), rr)
	s.Equal("Server error", body["message"])
	s.Equal("cloudinary: 503 service unavailable", body["error"])
	s.Empty(s.repo.accounts)
}

func (s *AuthHandlerTestSuite) Test_Signup_ConcurrentSameEmail() {
	const attempts = 2
	codes := make([]int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		req := signupRequest(s.T(), anaFields(), jpegBytes)
		wg.Add(1)
		go func(i int, req *http.Request) {
			defer wg.Done()
			rr := httptest.NewRecorder()
			s.Router.ServeHTTP(rr, req)
			codes[i] = rr.Code
		}(i, req)
	}
	wg.Wait()

	s.ElementsMatch([]int{http.StatusCreated, http.StatusBadRequest}, codes)
	s.Len(s.repo.accounts, 1)
}

func (s *AuthHandlerTestSuite) Test_CORS() {
	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		return s.serve(req)
	}

	rr := preflight(allowedOrigin)
	s.Equal(http.StatusNoContent, rr.Code)
	s.Equal(allowedOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
	s.Equal("true", rr.Header().Get("Access-Control-Allow-Credentials"))
	s.NotContains(rr.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)

	rr = preflight("https://evil.example.com")
	s.Equal(http.StatusForbidden, rr.Code)
	s.Empty(rr.Header().Get("Access-Control-Allow-Origin"))

	req := loginJSON("ana@x.com", "longpass1")
	req.Header.Set("Origin", otherOrigin)
	rr = s.serve(req)
	s.Equal(otherOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
}

func (s *AuthHandlerTestSuite) Test_UnknownRoute() {
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	s.Equal(http.StatusNotFound, s.serve(req).Code)
}
