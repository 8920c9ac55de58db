package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shruti10934/talksy-backend/config"
	"github.com/Shruti10934/talksy-backend/internal/auth"
	"github.com/Shruti10934/talksy-backend/internal/db"
	"github.com/Shruti10934/talksy-backend/internal/middlewares"
	"github.com/Shruti10934/talksy-backend/internal/models"
	"github.com/Shruti10934/talksy-backend/internal/realtime"
	"github.com/Shruti10934/talksy-backend/pkg/assets"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// setupTestDB opens a private in-memory SQLite database and runs the
// production migrations against it.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%d?mode=memory&cache=shared", dbSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return conn
}

func testConfig() config.Config {
	return config.Config{
		Port:           "3000",
		Environment:    "development",
		JWTSecret:      "test-secret",
		AdminSecretKey: "test-admin-key",
		UserTokenTTL:   time.Hour,
		AdminTokenTTL:  15 * time.Minute,
		CookieSecure:   false,
	}
}

type testEnv struct {
	db  *gorm.DB
	cfg config.Config
	api *mux.Router
}

// newTestEnv wires the full API surface against a fresh database and a
// stubbed asset host, mirroring the production router setup.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := setupTestDB(t)
	cfg := testConfig()

	assetHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			if err := r.ParseMultipartForm(16 << 20); err != nil {
				http.Error(w, "bad multipart", http.StatusBadRequest)
				return
			}
			publicID := r.FormValue("public_id")
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"public_id":  publicID,
				"secure_url": "https://assets.test/" + publicID,
			})
		case "/delete":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(assetHost.Close)
	assetClient := assets.NewClient(assetHost.URL, "test-key")

	registry := realtime.NewRegistry()
	router := realtime.NewRouter(registry)

	userAuth := middlewares.RequireUserAuth([]byte(cfg.JWTSecret))
	adminAuth := middlewares.RequireAdminAuth([]byte(cfg.JWTSecret))

	api := mux.NewRouter()
	NewUserHandler(conn, cfg, router, assetClient).RegisterRoutes(api, userAuth)
	NewChatHandler(conn, cfg, router, assetClient).RegisterRoutes(api, userAuth)
	NewAdminHandler(conn, cfg).RegisterRoutes(api, adminAuth)

	return &testEnv{db: conn, cfg: cfg, api: api}
}

// createUser inserts a user whose password is "password123".
func (e *testEnv) createUser(t *testing.T, name, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Username:     username,
		Bio:          "hello",
		PasswordHash: string(hash),
		Avatar:       models.Avatar{PublicID: "pid-" + username, URL: "https://assets.test/" + username},
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

// createChat inserts a chat; groupChat chats get the first member as creator.
func (e *testEnv) createChat(t *testing.T, name string, groupChat bool, members ...*models.User) *models.Chat {
	t.Helper()
	users := make([]models.User, 0, len(members))
	for _, m := range members {
		users = append(users, *m)
	}
	chat := &models.Chat{
		ID:        uuid.New(),
		Name:      name,
		GroupChat: groupChat,
		Members:   users,
	}
	if groupChat {
		chat.CreatorID = &members[0].ID
	}
	require.NoError(t, e.db.Create(chat).Error)
	return chat
}

func (e *testEnv) userCookie(t *testing.T, userID uuid.UUID) *http.Cookie {
	t.Helper()
	token, err := auth.GenerateUserToken(userID, []byte(e.cfg.JWTSecret), e.cfg.UserTokenTTL)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.UserCookieName, Value: token}
}

func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := auth.GenerateAdminToken([]byte(e.cfg.JWTSecret), e.cfg.AdminTokenTTL)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.AdminCookieName, Value: token}
}

// do runs a request through the router and decodes the JSON body.
func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.api.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

// multipartBody builds a multipart form with string fields plus named files.
func multipartBody(t *testing.T, fields map[string]string, fileField string, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range filenames {
		fw, err := mw.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake-image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
