package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"facematch/internal/wizard"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDrafts is an in-memory DraftStore.
type memDrafts struct {
	m map[string]*wizard.Draft
}

func newMemDrafts() *memDrafts {
	return &memDrafts{m: map[string]*wizard.Draft{}}
}

func (s *memDrafts) Load(_ context.Context, userID string) (*wizard.Draft, error) {
	if d, ok := s.m[userID]; ok {
		cp := *d
		return &cp, nil
	}
	return wizard.NewDraft(), nil
}

func (s *memDrafts) Save(_ context.Context, userID string, draft *wizard.Draft) error {
	cp := *draft
	s.m[userID] = &cp
	return nil
}

func (s *memDrafts) Delete(_ context.Context, userID string) error {
	delete(s.m, userID)
	return nil
}

func signupRouter(h *SignupHandler) *gin.Engine {
	r := gin.New()
	r.Use(asUser(testUserID))
	r.POST("/signup", h.Submit)
	r.PUT("/signup/draft", h.UpdateDraft)
	r.POST("/signup/draft/advance", h.AdvanceDraft)
	return r
}

func signupPayload(mutate func(m map[string]interface{})) string {
	m := map[string]interface{}{
		"language": "en",
		"gender":   "female",
		"name":     "Alice",
		"bio":      "Hello there",
		"dob":      map[string]string{"day": "12", "month": "5", "year": "1995"},
		"reason":   "long_term",
		"images": []map[string]string{
			{"id": "a", "url": "https://cdn.test/a.jpg"},
			{"id": "b", "url": "https://cdn.test/b.jpg"},
		},
	}
	if mutate != nil {
		mutate(m)
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// completeDraft returns a draft that passes every step, parked on the
// photos step.
func completeDraft() *wizard.Draft {
	lang, gender, reason := "en", "female", "long_term"
	return &wizard.Draft{
		Step:     wizard.StepPhotos,
		Language: &lang,
		Gender:   &gender,
		Name:     "Alice",
		Bio:      "Hello there",
		DOB:      wizard.DOB{Day: "12", Month: "5", Year: "1995"},
		Reason:   &reason,
		Images: []wizard.ImageItem{
			{ID: "a", URL: "https://cdn.test/a.jpg"},
			{ID: "b", URL: "https://cdn.test/b.jpg"},
		},
	}
}

func expectProfileInsert(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec(`INSERT INTO "profiles"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "user_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sort_order"}).AddRow(uint(1), 0))
	mock.ExpectQuery(`INSERT INTO "user_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(2)))
}

func TestSubmitRejectsRolledOverBirthDate(t *testing.T) {
	h := NewSignupHandler(nil, newMemDrafts(), testConfig())

	body := signupPayload(func(m map[string]interface{}) {
		m["dob"] = map[string]string{"day": "31", "month": "2", "year": "2000"}
	})
	w := performJSON(signupRouter(h), http.MethodPost, "/signup", body)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "dob")
	assert.NotContains(t, resp.Errors, "name")
}

func TestSubmitRejectsShortBioAndSinglePhoto(t *testing.T) {
	h := NewSignupHandler(nil, newMemDrafts(), testConfig())

	body := signupPayload(func(m map[string]interface{}) {
		m["bio"] = "hi"
		m["images"] = []map[string]string{{"id": "a", "url": "https://cdn.test/a.jpg"}}
	})
	w := performJSON(signupRouter(h), http.MethodPost, "/signup", body)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "bio")
	assert.Contains(t, resp.Errors, "images")
}

func TestSubmitRejectsUnknownReason(t *testing.T) {
	h := NewSignupHandler(nil, newMemDrafts(), testConfig())

	body := signupPayload(func(m map[string]interface{}) {
		m["reason"] = "world domination"
	})
	w := performJSON(signupRouter(h), http.MethodPost, "/signup", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitConflictWhenProfileExists(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewSignupHandler(db, newMemDrafts(), testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectRollback()

	w := performJSON(signupRouter(h), http.MethodPost, "/signup", signupPayload(nil))

	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitCreatesProfileImagesAndReferral(t *testing.T) {
	db, mock := newMockDB(t)
	drafts := newMemDrafts()
	h := NewSignupHandler(db, drafts, testConfig())

	expectProfileInsert(mock)
	mock.ExpectQuery(`INSERT INTO "referrals"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(1)))
	mock.ExpectCommit()

	body := signupPayload(func(m map[string]interface{}) {
		m["referred_by"] = otherUserID
	})
	w := performJSON(signupRouter(h), http.MethodPost, "/signup", body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var profile struct {
		ID         string `json:"id"`
		Points     int    `json:"points"`
		Zodiac     string `json:"zodiac"`
		ReferredBy string `json:"referred_by"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, testUserID, profile.ID)
	assert.Equal(t, 100, profile.Points)
	assert.Equal(t, "taurus", profile.Zodiac)
	assert.Equal(t, otherUserID, profile.ReferredBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceDraftBlockedUntilStepValid(t *testing.T) {
	drafts := newMemDrafts()
	h := NewSignupHandler(nil, drafts, testConfig())
	r := signupRouter(h)

	w := performJSON(r, http.MethodPost, "/signup/draft/advance", `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Step   string            `json:"step"`
		Moved  bool              `json:"moved"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Moved)
	assert.Equal(t, "language", resp.Step)
	assert.Contains(t, resp.Errors, "language")

	w = performJSON(r, http.MethodPut, "/signup/draft", `{"language": "en"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSON(r, http.MethodPost, "/signup/draft/advance", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Moved)
	assert.Equal(t, "profile", resp.Step)
}

func TestAdvanceToFinalSubmitsAndDropsDraft(t *testing.T) {
	db, mock := newMockDB(t)
	drafts := newMemDrafts()
	require.NoError(t, drafts.Save(context.Background(), testUserID, completeDraft()))
	h := NewSignupHandler(db, drafts, testConfig())

	expectProfileInsert(mock)
	mock.ExpectCommit()

	w := performJSON(signupRouter(h), http.MethodPost, "/signup/draft/advance", `{}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, drafts.m, testUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDraftReferralRecordedOnWizardSubmission(t *testing.T) {
	db, mock := newMockDB(t)
	drafts := newMemDrafts()
	h := NewSignupHandler(db, drafts, testConfig())
	r := signupRouter(h)

	// referred_by arrives through a draft update, like any other field
	w := performJSON(r, http.MethodPut, "/signup/draft", `{"referred_by": "`+otherUserID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	seeded := completeDraft()
	seeded.ReferredBy = drafts.m[testUserID].ReferredBy
	require.NotNil(t, seeded.ReferredBy)
	require.NoError(t, drafts.Save(context.Background(), testUserID, seeded))

	expectProfileInsert(mock)
	mock.ExpectQuery(`INSERT INTO "referrals"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uint(1)))
	mock.ExpectCommit()

	w = performJSON(r, http.MethodPost, "/signup/draft/advance", `{}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceSubmissionFailureKeepsDraftForRetry(t *testing.T) {
	db, mock := newMockDB(t)
	drafts := newMemDrafts()
	require.NoError(t, drafts.Save(context.Background(), testUserID, completeDraft()))
	h := NewSignupHandler(db, drafts, testConfig())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "profiles"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	w := performJSON(signupRouter(h), http.MethodPost, "/signup/draft/advance", `{}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"retryable":true`)
	// the draft survives, parked back on the photos step
	require.Contains(t, drafts.m, testUserID)
	assert.Equal(t, wizard.StepPhotos, drafts.m[testUserID].Step)
}
