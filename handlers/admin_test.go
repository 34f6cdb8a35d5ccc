package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"replygate/core"
	"replygate/models"
	"replygate/services/guildsettings"
	"replygate/services/replytracker"
	"replygate/services/reviews"
	"replygate/services/usagecost"
)

const testAPIKey = "sekrit"

type adminFixture struct {
	reviewsService  *reviews.MockReviewsService
	settingsService *guildsettings.MockGuildSettingsService
	usageService    *usagecost.MockUsageCostService
	router          *mux.Router
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		reviewsService:  new(reviews.MockReviewsService),
		settingsService: new(guildsettings.MockGuildSettingsService),
		usageService:    new(usagecost.MockUsageCostService),
		router:          mux.NewRouter(),
	}
	handler := NewAdminHandler(
		testAPIKey,
		f.reviewsService,
		f.settingsService,
		f.usageService,
		replytracker.NewReplyTracker(time.Hour, 100),
	)
	handler.RegisterRoutes(f.router)
	return f
}

func (f *adminFixture) do(method, path, apiKey, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if apiKey != "" {
		req.Header.Set("X-Admin-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRequiresAPIKey(t *testing.T) {
	f := newAdminFixture()

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/reviews", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/reviews", "wrong", "").Code)
}

func TestAdminRejectsAllWhenNoKeyConfigured(t *testing.T) {
	f := newAdminFixture()
	handler := NewAdminHandler("", f.reviewsService, f.settingsService, f.usageService,
		replytracker.NewReplyTracker(time.Hour, 100))
	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminListReviews(t *testing.T) {
	f := newAdminFixture()
	f.reviewsService.On("ListPending").Return([]*models.PendingReview{
		{ID: "rev_1", GuildID: "guild_1"},
	})

	rec := f.do(http.MethodGet, "/api/reviews", testAPIKey, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Reviews []*models.PendingReview `json:"reviews"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Reviews, 1)
	assert.Equal(t, "rev_1", payload.Reviews[0].ID)
}

func TestAdminResolveReview(t *testing.T) {
	f := newAdminFixture()
	id := core.NewID("rev")
	f.reviewsService.On("Resolve", mock.Anything, id, models.ReviewActionApprove, "ops").
		Return(models.ReviewResolution{Status: models.ReviewResolutionApproved, Sent: true})

	rec := f.do(http.MethodPost, "/api/reviews/"+id+"/resolve", testAPIKey,
		`{"action":"approve","acting_user_tag":"ops"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.reviewsService.AssertExpectations(t)
}

func TestAdminResolveMalformedID(t *testing.T) {
	f := newAdminFixture()

	rec := f.do(http.MethodPost, "/api/reviews/not-a-review-id/resolve", testAPIKey, `{"action":"approve"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.reviewsService.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminResolveStaleReviewConflicts(t *testing.T) {
	f := newAdminFixture()
	id := core.NewID("rev")
	f.reviewsService.On("Resolve", mock.Anything, id, models.ReviewActionReject, "admin-api").
		Return(models.ReviewResolution{Status: models.ReviewResolutionNoLongerPending})

	rec := f.do(http.MethodPost, "/api/reviews/"+id+"/resolve", testAPIKey, `{"action":"reject"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminResolveInvalidAction(t *testing.T) {
	f := newAdminFixture()
	id := core.NewID("rev")
	f.reviewsService.On("Resolve", mock.Anything, id, models.ReviewAction("shrug"), "admin-api").
		Return(models.ReviewResolution{Status: models.ReviewResolutionInvalidAction})

	rec := f.do(http.MethodPost, "/api/reviews/"+id+"/resolve", testAPIKey, `{"action":"shrug"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUpsertGuildSettings(t *testing.T) {
	f := newAdminFixture()
	f.settingsService.On("UpsertGuildSettings", mock.Anything, mock.MatchedBy(func(s *models.GuildSettings) bool {
		return s.GuildID == "guild_1" && s.RepliesEnabled && s.RandomReplyProbability == 0.05
	})).Return(&models.GuildSettings{GuildID: "guild_1", RepliesEnabled: true, RandomReplyProbability: 0.05}, nil)

	rec := f.do(http.MethodPut, "/api/guilds/guild_1/settings", testAPIKey,
		`{"replies_enabled":true,"random_reply_probability":0.05}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.settingsService.AssertExpectations(t)
}

func TestAdminGetGuildUsage(t *testing.T) {
	f := newAdminFixture()
	f.usageService.On("GetRecentUsage", mock.Anything, "guild_1", 5).
		Return([]*models.UsageCost{{ID: "uc_1", GuildID: "guild_1"}}, nil)
	f.usageService.On("GetTotalSpend", mock.Anything, "guild_1").
		Return(decimal.NewFromFloat(1.25), nil)

	rec := f.do(http.MethodGet, "/api/guilds/guild_1/usage?limit=5", testAPIKey, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "uc_1")
	assert.Contains(t, rec.Body.String(), "1.25")
}
