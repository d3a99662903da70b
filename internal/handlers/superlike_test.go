package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func superlikeRouter(h *SuperlikeHandler) *gin.Engine {
	r := gin.New()
	r.Use(asUser(testUserID))
	r.POST("/superlike", h.Send)
	return r
}

func TestSuperlikeRejectsInsufficientPoints(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewSuperlikeHandler(db, nil, testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = (.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "points"}).AddRow(testUserID, 10))
	mock.ExpectRollback()

	w := performJSON(superlikeRouter(h), http.MethodPost, "/superlike",
		`{"targetId": "`+otherUserID+`"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Not enough points")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuperlikeDeductsCostAndRecordsSwipe(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewSuperlikeHandler(db, nil, testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = (.+)FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "points"}).AddRow(testUserID, 200))
	mock.ExpectExec(`UPDATE "profiles" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "swipes" (.+)ON CONFLICT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(1)))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "points", "push_token"}).
			AddRow(otherUserID, 0, nil))

	w := performJSON(superlikeRouter(h), http.MethodPost, "/superlike",
		`{"targetId": "`+otherUserID+`"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Success   bool `json:"success"`
		NewPoints int  `json:"newPoints"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 150, body.NewPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuperlikeRejectsInvalidTarget(t *testing.T) {
	h := NewSuperlikeHandler(nil, nil, testConfig())

	w := performJSON(superlikeRouter(h), http.MethodPost, "/superlike", `{"targetId": "not-a-uuid"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
