package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamerchallenges/api/internal/config"
	"github.com/gamerchallenges/api/internal/model"
	"github.com/gamerchallenges/api/internal/repository"
	"github.com/gamerchallenges/api/internal/utils"
)

const (
	testSecret   = "handler-test-secret"
	testPassword = "Sup3rS3cret!pass"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      testSecret,
		AccessTTLMin:   60,
		RefreshTTLDays: 7,
		ResetTTLMin:    15,
	}
}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewTokenRepo(db))
	return h, mock
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func userRow(u model.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"user_id", "pseudo", "email", "password", "avatar", "role",
		"created_at", "updated_at", "deleted_at",
	}).AddRow(u.ID, u.Pseudo, u.Email, u.PasswordHash, u.Avatar, u.Role,
		u.CreatedAt, u.UpdatedAt, u.DeletedAt)
}

func storedUser(t *testing.T) model.User {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	now := time.Now()
	return model.User{
		ID: 7, Pseudo: "NovaRunner", Email: "nova@example.com",
		PasswordHash: hash, Role: model.RoleMember,
		CreatedAt: now, UpdatedAt: now,
	}
}

func expectReplaceRefresh(mock sqlmock.Sqlmock, userID int64) {
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM tokens").
		WithArgs(userID, model.TokenTypeRefresh).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tokens").
		WithArgs(sqlmock.AnyArg(), model.TokenTypeRefresh, userID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	res := http.Response{Header: rec.Header()}
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSuccess(t *testing.T) {
	h, mock := newAuthHandler(t)
	u := storedUser(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=").
		WithArgs(u.Email).
		WillReturnRows(userRow(u))
	expectReplaceRefresh(mock, u.ID)

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/api/auth/login",
		`{"email":"nova@example.com","password":"`+testPassword+`"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Login(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accessToken"`)
	assert.Contains(t, rec.Body.String(), `"pseudo":"NovaRunner"`)
	assert.NotContains(t, rec.Body.String(), u.PasswordHash)

	access := cookieByName(rec, utils.AccessTokenCookie)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, "/", access.Path)

	refresh := cookieByName(rec, utils.RefreshTokenCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, utils.RefreshCookiePath, refresh.Path)
	assert.Equal(t, 7*24*3600, refresh.MaxAge)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := newAuthHandler(t)
	u := storedUser(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=").
		WithArgs(u.Email).
		WillReturnRows(userRow(u))

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/api/auth/login",
		`{"email":"nova@example.com","password":"Wr0ngPassword!!"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Login(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), badCredentialsMsg)
	assert.Nil(t, cookieByName(rec, utils.AccessTokenCookie))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmailSameMessage(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/api/auth/login",
		`{"email":"ghost@example.com","password":"`+testPassword+`"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Login(e.NewContext(req, rec)))

	// Indistinguishable from the wrong-password case.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), badCredentialsMsg)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	h, _ := newAuthHandler(t)

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/api/auth/register",
		`{"pseudo":"NovaRunner","email":"nova@example.com","password":"`+testPassword+`","confirm":"Different1!pass"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Register(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "passwords do not match")
}

func TestRegisterConflictsPerField(t *testing.T) {
	tests := []struct {
		name        string
		rows        [][]string
		emailTaken  bool
		pseudoTaken bool
	}{
		{
			name:       "email only",
			rows:       [][]string{{"nova@example.com", "SomeoneElse"}},
			emailTaken: true,
		},
		{
			name:        "pseudo only",
			rows:        [][]string{{"other@example.com", "NovaRunner"}},
			pseudoTaken: true,
		},
		{
			name: "both at once",
			rows: [][]string{
				{"nova@example.com", "SomeoneElse"},
				{"other@example.com", "NovaRunner"},
			},
			emailTaken:  true,
			pseudoTaken: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock := newAuthHandler(t)

			rows := sqlmock.NewRows([]string{"email", "pseudo"})
			for _, r := range tt.rows {
				rows.AddRow(r[0], r[1])
			}
			mock.ExpectQuery("SELECT email, pseudo FROM users").
				WithArgs("nova@example.com", "NovaRunner").
				WillReturnRows(rows)

			e := echo.New()
			req := jsonRequest(http.MethodPost, "/api/auth/register",
				`{"pseudo":"NovaRunner","email":"nova@example.com","password":"`+testPassword+`","confirm":"`+testPassword+`"}`)
			rec := httptest.NewRecorder()
			require.NoError(t, h.Register(e.NewContext(req, rec)))

			assert.Equal(t, http.StatusConflict, rec.Code)
			if tt.emailTaken {
				assert.Contains(t, rec.Body.String(), `"email":"email already in use"`)
			} else {
				assert.NotContains(t, rec.Body.String(), `"email"`)
			}
			if tt.pseudoTaken {
				assert.Contains(t, rec.Body.String(), `"pseudo":"pseudo already in use"`)
			} else {
				assert.NotContains(t, rec.Body.String(), `"pseudo"`)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegisterSuccess(t *testing.T) {
	h, mock := newAuthHandler(t)
	u := storedUser(t)

	mock.ExpectQuery("SELECT email, pseudo FROM users").
		WithArgs(u.Email, u.Pseudo).
		WillReturnRows(sqlmock.NewRows([]string{"email", "pseudo"}))
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.Pseudo, u.Email, sqlmock.AnyArg(), "", model.RoleMember).
		WillReturnResult(sqlmock.NewResult(u.ID, 1))
	mock.ExpectQuery("SELECT .+ FROM users WHERE user_id=").
		WithArgs(u.ID).
		WillReturnRows(userRow(u))
	expectReplaceRefresh(mock, u.ID)

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/api/auth/register",
		`{"pseudo":"NovaRunner","email":"nova@example.com","password":"`+testPassword+`","confirm":"`+testPassword+`"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Register(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "user created successfully")
	assert.NotNil(t, cookieByName(rec, utils.AccessTokenCookie))
	assert.NotNil(t, cookieByName(rec, utils.RefreshTokenCookie))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshAccessToken(t *testing.T) {
	t.Run("missing cookie", func(t *testing.T) {
		h, _ := newAuthHandler(t)
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, h.RefreshAccessToken(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "refresh token missing")
	})

	t.Run("unknown token", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectQuery("SELECT id, token, token_type").
			WithArgs("unknown", model.TokenTypeRefresh).
			WillReturnError(sql.ErrNoRows)

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: utils.RefreshTokenCookie, Value: "unknown"})
		rec := httptest.NewRecorder()
		require.NoError(t, h.RefreshAccessToken(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid refresh token")
	})

	t.Run("expired token is deleted", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectQuery("SELECT id, token, token_type").
			WithArgs("stale", model.TokenTypeRefresh).
			WillReturnRows(sqlmock.NewRows([]string{"id", "token", "token_type", "user_id", "issued_at", "expires_at"}).
				AddRow(int64(3), "stale", model.TokenTypeRefresh, int64(7),
					time.Now().Add(-8*24*time.Hour), time.Now().Add(-time.Hour)))
		mock.ExpectExec("DELETE FROM tokens WHERE id=").
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: utils.RefreshTokenCookie, Value: "stale"})
		rec := httptest.NewRecorder()
		require.NoError(t, h.RefreshAccessToken(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "refresh token expired")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("valid token mints new access token", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		u := storedUser(t)
		mock.ExpectQuery("SELECT id, token, token_type").
			WithArgs("live", model.TokenTypeRefresh).
			WillReturnRows(sqlmock.NewRows([]string{"id", "token", "token_type", "user_id", "issued_at", "expires_at"}).
				AddRow(int64(3), "live", model.TokenTypeRefresh, u.ID,
					time.Now().Add(-time.Hour), time.Now().Add(6*24*time.Hour)))
		mock.ExpectQuery("SELECT .+ FROM users WHERE user_id=").
			WithArgs(u.ID).
			WillReturnRows(userRow(u))

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: utils.RefreshTokenCookie, Value: "live"})
		rec := httptest.NewRecorder()
		require.NoError(t, h.RefreshAccessToken(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusOK, rec.Code)
		access := cookieByName(rec, utils.AccessTokenCookie)
		require.NotNil(t, access)
		ident := utils.DecodeJWT(testSecret, access.Value)
		require.NotNil(t, ident)
		assert.Equal(t, u.ID, ident.ID)
		// The refresh token itself is not rotated here.
		assert.Nil(t, cookieByName(rec, utils.RefreshTokenCookie))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLogout(t *testing.T) {
	t.Run("with session cookie", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectExec("DELETE FROM tokens WHERE token=").
			WithArgs("live").
			WillReturnResult(sqlmock.NewResult(0, 1))

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: utils.RefreshTokenCookie, Value: "live"})
		rec := httptest.NewRecorder()
		require.NoError(t, h.Logout(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		refresh := cookieByName(rec, utils.RefreshTokenCookie)
		require.NotNil(t, refresh)
		assert.Less(t, refresh.MaxAge, 0)
		assert.Equal(t, utils.RefreshCookiePath, refresh.Path)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without session cookie is still 204", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, h.Logout(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMe(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		u := storedUser(t)
		mock.ExpectQuery("SELECT .+ FROM users WHERE user_id=").
			WithArgs(u.ID).
			WillReturnRows(userRow(u))

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("identity", &utils.Identity{ID: u.ID, Role: u.Role})
		require.NoError(t, h.Me(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"pseudo":"NovaRunner"`)
	})

	t.Run("row vanished", func(t *testing.T) {
		h, mock := newAuthHandler(t)
		mock.ExpectQuery("SELECT .+ FROM users WHERE user_id=").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("identity", &utils.Identity{ID: 99, Role: model.RoleMember})
		require.NoError(t, h.Me(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestForgotPasswordNeverRevealsAccounts(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@example.com"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ForgotPassword(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), resetSentMsg)
}

func TestResetPasswordInvalidTokenStopsEarly(t *testing.T) {
	h, mock := newAuthHandler(t)

	// Only the lookup may hit the database; no password write, no delete.
	mock.ExpectQuery("SELECT id, token, token_type").
		WithArgs("bogus", model.TokenTypeForgotPswd).
		WillReturnError(sql.ErrNoRows)

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/api/auth/reset-password",
		`{"token":"bogus","password":"`+testPassword+`","confirm":"`+testPassword+`"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ResetPassword(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPasswordConsumesToken(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery("SELECT id, token, token_type").
		WithArgs("valid-reset", model.TokenTypeForgotPswd).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "token_type", "user_id", "issued_at", "expires_at"}).
			AddRow(int64(5), "valid-reset", model.TokenTypeForgotPswd, int64(7),
				time.Now().Add(-time.Minute), time.Now().Add(10*time.Minute)))
	mock.ExpectExec("UPDATE users SET password=").
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM tokens WHERE id=").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/api/auth/reset-password",
		`{"token":"valid-reset","password":"`+testPassword+`","confirm":"`+testPassword+`"}`)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ResetPassword(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDelete(t *testing.T) {
	t.Run("cannot delete someone else", func(t *testing.T) {
		h, mock := newAuthHandler(t)

		e := echo.New()
		req := httptest.NewRequest(http.MethodPatch, "/api/auth/delete/8", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("userId")
		c.SetParamValues("8")
		c.Set("identity", &utils.Identity{ID: 7, Role: model.RoleMember})
		require.NoError(t, h.SoftDelete(c))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "action not allowed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("anonymizes own account and revokes sessions", func(t *testing.T) {
		h, mock := newAuthHandler(t)

		mock.ExpectExec("UPDATE users SET pseudo=").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM tokens WHERE user_id=").
			WithArgs(int64(7), model.TokenTypeRefresh).
			WillReturnResult(sqlmock.NewResult(0, 1))

		e := echo.New()
		req := httptest.NewRequest(http.MethodPatch, "/api/auth/delete/7", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("userId")
		c.SetParamValues("7")
		c.Set("identity", &utils.Identity{ID: 7, Role: model.RoleMember})
		require.NoError(t, h.SoftDelete(c))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		refresh := cookieByName(rec, utils.RefreshTokenCookie)
		require.NotNil(t, refresh)
		assert.Less(t, refresh.MaxAge, 0)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
