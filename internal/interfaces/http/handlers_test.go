package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vkj/geofix-api/internal/application/auth"
	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/internal/application/otp"
	"github.com/vkj/geofix-api/internal/application/usecase"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/internal/infrastructure/memory"
	"github.com/vkj/geofix-api/internal/infrastructure/storage"
	apphttp "github.com/vkj/geofix-api/internal/interfaces/http"
	"github.com/vkj/geofix-api/pkg/config"
	"github.com/vkj/geofix-api/pkg/logger"
)

type captureNotifier struct{ last string }

func (n *captureNotifier) SendOTP(_ context.Context, _, code string, _ time.Time) error {
	n.last = code
	return nil
}

type apiFixture struct {
	app      *fiber.App
	repo     *memory.UserRepo
	authUC   *auth.AuthUseCase
	notifier *captureNotifier
	dir      string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	log := logger.Nop()
	codec := newTestCodec(t)
	repo := memory.NewUserRepository()
	dir := filepath.Join(t.TempDir(), "uploads")
	docs, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	notifier := &captureNotifier{}
	authUC := auth.NewAuthUseCase(repo, hasher, codec, docs, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    authUC,
		OTPUC:     otp.NewUseCase(repo, hasher, notifier, log),
		UserUC:    usecase.NewUserUseCase(repo),
		StatsUC:   usecase.NewStatsUseCase(repo),
		Codec:     codec,
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
		Log:       log,
	})
	return &apiFixture{app: app, repo: repo, authUC: authUC, notifier: notifier, dir: dir}
}

func (f *apiFixture) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func jsonRequest(method, path string, body any, token string) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func multipartRequest(t *testing.T, method, path string, userData any, files map[string]string, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if userData != nil {
		b, err := json.Marshal(userData)
		require.NoError(t, err)
		require.NoError(t, w.WriteField("userData", string(b)))
	}
	for field, name := range files {
		fw, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("bytes-de-" + field))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (f *apiFixture) signupAndLogin(t *testing.T, email string) dto.LoginResponse {
	t.Helper()
	resp, body := f.do(t, multipartRequest(t, http.MethodPost, "/auth/signup",
		map[string]string{"name": "Meera", "email": email, "password": "secreto123", "address": "Pune"}, nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	return f.login(t, email, "secreto123")
}

func (f *apiFixture) login(t *testing.T, email, password string) dto.LoginResponse {
	t.Helper()
	resp, body := f.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestSignupYLogin_FlujoCompleto(t *testing.T) {
	f := newAPI(t)
	out := f.signupAndLogin(t, "meera@geofix.in")
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, []string{"ROLE_CITIZEN"}, out.Roles)

	resp, body := f.do(t, jsonRequest(http.MethodGet, "/auth/profile", nil, out.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile map[string]any
	require.NoError(t, json.Unmarshal(body, &profile))
	assert.Equal(t, "meera@geofix.in", profile["email"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "passwordHash")
	assert.NotContains(t, string(body), "$2a$")
}

func TestSignup_AdminSinDocumentos_400(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, multipartRequest(t, http.MethodPost, "/auth/signup",
		map[string]string{"name": "Admin", "email": "adm@geofix.in", "password": "secreto123", "role": "ROLE_ADMIN"},
		map[string]string{"photo": "p.jpg"}, ""))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "MISSING_DOCUMENTS")

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSignup_AdminConDocumentos_200(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, multipartRequest(t, http.MethodPost, "/auth/signup",
		map[string]string{"name": "Admin", "email": "adm@geofix.in", "password": "secreto123", "role": "ROLE_ADMIN"},
		map[string]string{"photo": "p.jpg", "aadharFront": "f.jpg", "aadharBack": "b.jpg"}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	u, err := f.repo.GetByEmail(context.Background(), "adm@geofix.in")
	require.NoError(t, err)
	require.NotNil(t, u.AadharBackURL)
	assert.True(t, strings.HasPrefix(*u.AadharBackURL, "uploads/aadhar_back_"))
}

func TestSignup_Errores400(t *testing.T) {
	f := newAPI(t)
	f.signupAndLogin(t, "dup@geofix.in")

	resp, body := f.do(t, multipartRequest(t, http.MethodPost, "/auth/signup",
		map[string]string{"name": "Otro", "email": "dup@geofix.in", "password": "secreto123"}, nil, ""))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "DUPLICATE_EMAIL")

	resp, _ = f.do(t, multipartRequest(t, http.MethodPost, "/auth/signup", nil, nil, ""))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.do(t, multipartRequest(t, http.MethodPost, "/auth/signup",
		map[string]string{"name": "X", "email": "no-es-email", "password": "secreto123"}, nil, ""))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
}

func TestLogin_RespuestaUniformeParaUsuarioYPassword(t *testing.T) {
	f := newAPI(t)
	f.signupAndLogin(t, "meera@geofix.in")

	respA, bodyA := f.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{"email": "nadie@geofix.in", "password": "x"}, ""))
	respB, bodyB := f.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{"email": "meera@geofix.in", "password": "mala"}, ""))
	assert.Equal(t, http.StatusUnauthorized, respA.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, respB.StatusCode)
	assert.JSONEq(t, string(bodyA), string(bodyB))

	resp, _ := f.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{"password": "x"}, ""))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_CuentaInactiva_403(t *testing.T) {
	f := newAPI(t)
	f.signupAndLogin(t, "meera@geofix.in")
	u, err := f.repo.GetByEmail(context.Background(), "meera@geofix.in")
	require.NoError(t, err)
	u.Status = entity.StatusPending
	require.NoError(t, f.repo.Update(context.Background(), u))

	resp, body := f.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{"email": "meera@geofix.in", "password": "secreto123"}, ""))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "ACCOUNT_NOT_ACTIVE")
}

func TestUpdateProfile_Parcial(t *testing.T) {
	f := newAPI(t)
	tok := f.signupAndLogin(t, "meera@geofix.in").Token

	resp, body := f.do(t, multipartRequest(t, http.MethodPut, "/auth/update-profile",
		map[string]string{"address": "Nashik"}, map[string]string{"photo": "nueva.png"}, tok))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out dto.UpdateProfileResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Nashik", out.User.Address)
	assert.Equal(t, "Meera", out.User.Name)
	require.NotNil(t, out.User.PhotoURL)
	assert.Nil(t, out.User.AadharFrontURL)
}

func TestLogout_SiempreOK(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, jsonRequest(http.MethodPost, "/auth/logout", nil, ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Logged out successfully")

	tok := f.signupAndLogin(t, "meera@geofix.in").Token
	resp, _ = f.do(t, jsonRequest(http.MethodPost, "/auth/logout", nil, tok))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOTP_RestablecerPassword(t *testing.T) {
	f := newAPI(t)
	f.signupAndLogin(t, "meera@geofix.in")

	resp, _ := f.do(t, jsonRequest(http.MethodPost, "/auth/otp/request", map[string]string{"email": "meera@geofix.in"}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, f.notifier.last, 6)

	resp, body := f.do(t, jsonRequest(http.MethodPost, "/auth/otp/reset-password",
		map[string]string{"email": "meera@geofix.in", "otp": f.notifier.last, "newPassword": "cambiada1"}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	f.login(t, "meera@geofix.in", "cambiada1")

	resp, body = f.do(t, jsonRequest(http.MethodPost, "/auth/otp/verify",
		map[string]string{"email": "meera@geofix.in", "otp": f.notifier.last}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"verified":false}`, string(body))

	resp, _ = f.do(t, jsonRequest(http.MethodPost, "/auth/otp/request", map[string]string{"email": "nadie@geofix.in"}, ""))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_AccesoPorRol(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()
	citizen := f.signupAndLogin(t, "c@geofix.in")

	_, err := f.authUC.SeedSuperAdmin(ctx, "admin@gmail.com", "admin123")
	require.NoError(t, err)
	super := f.login(t, "admin@gmail.com", "admin123")

	resp, _ := f.do(t, jsonRequest(http.MethodGet, "/admin/users", nil, citizen.Token))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.do(t, jsonRequest(http.MethodGet, "/admin/users?limit=10", nil, super.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.UserListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 10, list.Page.Limit)

	resp, body = f.do(t, jsonRequest(http.MethodPut, "/admin/users/"+itoa(citizen.UserID)+"/roles",
		map[string][]string{"roles": {"ROLE_WORKER"}}, super.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "ROLE_WORKER")

	resp, _ = f.do(t, jsonRequest(http.MethodPut, "/admin/users/"+itoa(citizen.UserID)+"/deactivate", nil, super.Token))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, jsonRequest(http.MethodGet, "/admin/stats", nil, super.Token))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats dto.StatsResponse
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.ByRoleAndStatus["ROLE_WORKER"]["INACTIVE"])

	resp, _ = f.do(t, jsonRequest(http.MethodDelete, "/admin/users/"+itoa(citizen.UserID), nil, super.Token))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, jsonRequest(http.MethodGet, "/admin/users/"+itoa(citizen.UserID), nil, super.Token))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, jsonRequest(http.MethodGet, "/admin/users/abc", nil, super.Token))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_SoloSuperadminBorra(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()
	target := f.signupAndLogin(t, "c@geofix.in")

	u, err := f.repo.GetByEmail(ctx, "c@geofix.in")
	require.NoError(t, err)
	admin := *u
	admin.ID = 0
	admin.Email = "adm@geofix.in"
	admin.Roles = entity.NewRoleSet(entity.RoleAdmin)
	require.NoError(t, f.repo.Create(ctx, &admin))
	adminTok := f.login(t, "adm@geofix.in", "secreto123").Token

	resp, _ := f.do(t, jsonRequest(http.MethodDelete, "/admin/users/"+itoa(target.UserID), nil, adminTok))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, jsonRequest(http.MethodPut, "/admin/users/"+itoa(target.UserID)+"/approve", nil, adminTok))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
