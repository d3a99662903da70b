package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"facematch/internal/config"
	"facematch/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testUserID = "11111111-1111-1111-1111-111111111111"

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SuperlikeCost:     50,
		SignupPoints:      100,
		MaxFileSize:       10 * 1024 * 1024,
		AllowedImageTypes: []string{"image/jpeg", "image/png", "image/webp"},
		BaseURL:           "https://t.me/facematch_bot/app",
	}
}

// asUser injects the authenticated caller the way AuthRequired does.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func httptestGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func performJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func performMultipart(t *testing.T, router *gin.Engine, path string, fields map[string]string, fileField string, file []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{`form-data; name="` + fileField + `"; filename="photo.jpg"`}
		hdr["Content-Type"] = []string{"image/jpeg"}
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// stubPipeline satisfies services.PhotoPipeline with canned results.
type stubPipeline struct {
	variants *services.Variants
	err      error
}

func (s stubPipeline) Process(_ context.Context, _ []byte) (*services.Variants, error) {
	return s.variants, s.err
}

func (s stubPipeline) ProcessBatch(ctx context.Context, files [][]byte) []services.BatchResult {
	results := make([]services.BatchResult, len(files))
	for i := range files {
		v, err := s.Process(ctx, files[i])
		results[i] = services.BatchResult{Index: i, Variants: v, Err: err}
	}
	return results
}

// stubStore records deletions so tests can assert cleanup behavior.
type stubStore struct {
	deleted []string
}

func (s *stubStore) Upload(_ context.Context, filename, _ string, _ io.Reader, _ int64) (string, error) {
	return "https://cdn.test/" + filename, nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *stubStore) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, "https://cdn.test/")
}
