package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"facematch/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const otherUserID = "22222222-2222-2222-2222-222222222222"

func imageRouter(h *ImageHandler) *gin.Engine {
	r := gin.New()
	r.Use(asUser(testUserID))
	r.POST("/upload", h.Upload)
	r.POST("/photos", h.AddPhoto)
	r.DELETE("/photos", h.DeletePhoto)
	r.PUT("/photos/reorder", h.Reorder)
	return r
}

func photoColumns() []string {
	return []string{"id", "user_id", "image_url", "medium_url", "thumb_url", "sort_order", "is_active"}
}

func TestUploadRejectsFileWithoutFace(t *testing.T) {
	h := NewImageHandler(nil, stubPipeline{err: services.ErrNoFace}, &stubStore{}, testConfig())

	w := performMultipart(t, imageRouter(h), "/upload", nil, "avatar", []byte("fake image bytes"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no face detected")
}

func TestUploadRejectsMissingFile(t *testing.T) {
	h := NewImageHandler(nil, stubPipeline{}, &stubStore{}, testConfig())

	w := performMultipart(t, imageRouter(h), "/upload", map[string]string{"note": "x"}, "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddPhotoAppendsAfterHighestSortOrder(t *testing.T) {
	db, mock := newMockDB(t)
	variants := &services.Variants{Small: "s.jpg", Medium: "m.jpg", Large: "l.jpg"}
	h := NewImageHandler(db, stubPipeline{variants: variants}, &stubStore{}, testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT MAX\(sort_order\) FROM "user_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(2)))
	mock.ExpectQuery(`INSERT INTO "user_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(7)))
	mock.ExpectCommit()

	w := performMultipart(t, imageRouter(h), "/photos", nil, "avatar", []byte("fake image bytes"))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		ID        uint   `json:"id"`
		SortOrder int    `json:"sort_order"`
		Large     string `json:"large"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint(7), body.ID)
	assert.Equal(t, 3, body.SortOrder)
	assert.Equal(t, "l.jpg", body.Large)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePhotoRejectsForeignOwner(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewImageHandler(db, stubPipeline{}, &stubStore{}, testConfig())

	mock.ExpectQuery(`SELECT \* FROM "user_images" WHERE id =`).
		WillReturnRows(sqlmock.NewRows(photoColumns()).
			AddRow(uint(5), otherUserID, "l.jpg", "m.jpg", "s.jpg", 0, true))

	w := performJSON(imageRouter(h), http.MethodDelete, "/photos", `{"photoId": 5}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePhotoUnknownID(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewImageHandler(db, stubPipeline{}, &stubStore{}, testConfig())

	mock.ExpectQuery(`SELECT \* FROM "user_images" WHERE id =`).
		WillReturnRows(sqlmock.NewRows(photoColumns()))

	w := performJSON(imageRouter(h), http.MethodDelete, "/photos", `{"photoId": 99}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePhotoDatabaseFailureIsNot404(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewImageHandler(db, stubPipeline{}, &stubStore{}, testConfig())

	mock.ExpectQuery(`SELECT \* FROM "user_images" WHERE id =`).
		WillReturnError(errors.New("connection refused"))

	w := performJSON(imageRouter(h), http.MethodDelete, "/photos", `{"photoId": 5}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestDeletePhotoSoftDeletesAndQueuesObjects(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewImageHandler(db, stubPipeline{}, &stubStore{}, testConfig())

	mock.ExpectQuery(`SELECT \* FROM "user_images" WHERE id =`).
		WillReturnRows(sqlmock.NewRows(photoColumns()).
			AddRow(uint(5), testUserID, "https://cdn.test/l.jpg", "https://cdn.test/m.jpg", "https://cdn.test/s.jpg", 0, true))
	mock.ExpectExec(`UPDATE "user_images" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`INSERT INTO "pending_deletes"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(i + 1)))
	}

	w := performJSON(imageRouter(h), http.MethodDelete, "/photos", `{"photoId": 5}`)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReorderRejectsForeignPhoto(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewImageHandler(db, stubPipeline{}, &stubStore{}, testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "user_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(1)).AddRow(uint(2)))
	mock.ExpectRollback()

	w := performJSON(imageRouter(h), http.MethodPut, "/photos/reorder", `{"order": [1, 3]}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReorderRewritesSortOrder(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewImageHandler(db, stubPipeline{}, &stubStore{}, testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "user_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(1)).AddRow(uint(2)))
	mock.ExpectExec(`UPDATE "user_images" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "user_images" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := performJSON(imageRouter(h), http.MethodPut, "/photos/reorder", `{"order": [2, 1]}`)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
