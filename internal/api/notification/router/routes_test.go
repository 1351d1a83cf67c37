package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authmodels "tamil_society/internal/api/auth/models"
	authsvc "tamil_society/internal/api/auth/service"
	"tamil_society/internal/api/middleware"
	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/api/notification/notiftest"
	notifsvc "tamil_society/internal/api/notification/service"
	apirouter "tamil_society/internal/api/router"
	"tamil_society/internal/common"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "router-test-secret"

type users struct {
	list []authmodels.User
}

func (u *users) FindById(ctx context.Context, id primitive.ObjectID) (*authmodels.User, error) {
	for i := range u.list {
		if u.list[i].ID == id {
			user := u.list[i]
			return &user, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (u *users) ListAll(ctx context.Context) ([]authmodels.User, error) {
	return u.list, nil
}

func (u *users) ListByRole(ctx context.Context, role string) ([]authmodels.User, error) {
	var out []authmodels.User
	for _, user := range u.list {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (u *users) ListMembers(ctx context.Context) ([]authmodels.User, error) {
	var out []authmodels.User
	for _, user := range u.list {
		if !user.IsAdmin() {
			out = append(out, user)
		}
	}
	return out, nil
}

func (u *users) ListByIds(ctx context.Context, ids []primitive.ObjectID) ([]authmodels.User, error) {
	var out []authmodels.User
	for _, id := range ids {
		for _, user := range u.list {
			if user.ID == id {
				out = append(out, user)
			}
		}
	}
	return out, nil
}

type envelope struct {
	Code    interface{}     `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Status  string          `json:"status"`
}

type testAPI struct {
	app    *fiber.App
	store  *notiftest.Store
	admin  authmodels.User
	member authmodels.User
	other  authmodels.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	api := &testAPI{
		store:  notiftest.NewStore(),
		admin:  authmodels.User{ID: primitive.NewObjectID(), Name: "admin", Role: authmodels.RoleAdmin},
		member: authmodels.User{ID: primitive.NewObjectID(), Name: "kavin", Role: authmodels.RoleUser, LanguagePreference: "ta"},
		other:  authmodels.User{ID: primitive.NewObjectID(), Name: "meena", Role: authmodels.RoleUser},
	}
	directory := &users{list: []authmodels.User{api.admin, api.member, api.other}}

	service := notifsvc.NewNotificationService(notifsvc.Options{
		Store:     api.store,
		Directory: directory,
	})

	auth := middleware.NewAuthManager(secret, directory, 0)
	api.app = fiber.New()
	require.NoError(t, apirouter.SetupRoutes(api.app, auth, Register(service)))
	return api
}

func (api *testAPI) token(t *testing.T, u authmodels.User) string {
	t.Helper()
	raw, err := authsvc.IssueToken(secret, u.ID, u.Role, time.Hour)
	require.NoError(t, err)
	return raw
}

func (api *testAPI) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := api.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestCreate_RequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	body := `{"title":{"en":"Meeting"},"message":{"en":"Friday 6pm"},"targetAudience":"all"}`

	status, _ := api.do(t, http.MethodPost, "/api/v1/notifications", "", body)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(t, http.MethodPost, "/api/v1/notifications", api.token(t, api.member), body)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := api.do(t, http.MethodPost, "/api/v1/notifications", api.token(t, api.admin), body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)

	var records []notifmodels.Notification
	require.NoError(t, json.Unmarshal(env.Data, &records))
	assert.Len(t, records, 3)
}

func TestCreate_SingleRecipientReturnsObject(t *testing.T) {
	api := newTestAPI(t)
	body := `{"title":{"en":"Welcome","ta":"வரவேற்பு"},"message":{"en":"Hello"},"recipients":["` + api.member.ID.Hex() + `"]}`

	status, env := api.do(t, http.MethodPost, "/api/v1/notifications", api.token(t, api.admin), body)
	require.Equal(t, http.StatusOK, status)

	var record notifmodels.Notification
	require.NoError(t, json.Unmarshal(env.Data, &record))
	require.NotNil(t, record.RecipientRef)
	assert.Equal(t, api.member.ID, *record.RecipientRef)
	assert.Equal(t, "வரவேற்பு", record.Title.Ta)
}

func TestCreate_ValidationError(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, http.MethodPost, "/api/v1/notifications", api.token(t, api.admin), `{"title":{"en":""},"message":{"en":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", env.Status)

	status, _ = api.do(t, http.MethodPost, "/api/v1/notifications", api.token(t, api.admin), `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFeed_AnonymousAndMember(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	start := time.Now().Add(-time.Hour).UnixMilli()

	_, err := api.store.Create(ctx, &notifmodels.Notification{
		Title: notifmodels.LocalizedText{En: "Open day"}, TargetAudience: "all", StartAt: start, CreatedAt: start,
	})
	require.NoError(t, err)
	_, err = api.store.Create(ctx, &notifmodels.Notification{
		Title: notifmodels.LocalizedText{En: "Members only"}, TargetAudience: "members", StartAt: start, CreatedAt: start,
	})
	require.NoError(t, err)
	memberID := api.member.ID
	_, err = api.store.Create(ctx, &notifmodels.Notification{
		Title: notifmodels.LocalizedText{En: "For you"}, RecipientRef: &memberID, TargetAudience: "specific", StartAt: start, CreatedAt: start,
	})
	require.NoError(t, err)

	type feed struct {
		Items []struct {
			ID      string `json:"id"`
			Display struct {
				Language string `json:"language"`
				Title    string `json:"title"`
			} `json:"display"`
		} `json:"items"`
		UnreadCount int64 `json:"unreadCount"`
	}

	status, env := api.do(t, http.MethodGet, "/api/v1/notifications", "", "")
	require.Equal(t, http.StatusOK, status)
	var anon feed
	require.NoError(t, json.Unmarshal(env.Data, &anon))
	require.Len(t, anon.Items, 1)
	assert.Equal(t, "Open day", anon.Items[0].Display.Title)

	status, env = api.do(t, http.MethodGet, "/api/v1/notifications?limit=10", api.token(t, api.member), "")
	require.Equal(t, http.StatusOK, status)
	var member feed
	require.NoError(t, json.Unmarshal(env.Data, &member))
	assert.Len(t, member.Items, 3)
	assert.Equal(t, int64(1), member.UnreadCount)
	assert.Equal(t, "ta", member.Items[0].Display.Language)

	// broadcasts carry no read state, so the unread view lists exactly what the count counts
	status, env = api.do(t, http.MethodGet, "/api/v1/notifications?unreadOnly=true", api.token(t, api.member), "")
	require.Equal(t, http.StatusOK, status)
	var unread feed
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	require.Len(t, unread.Items, 1)
	assert.Equal(t, unread.UnreadCount, int64(len(unread.Items)))

	status, env = api.do(t, http.MethodGet, "/api/v1/notifications?unreadOnly=true", "", "")
	require.Equal(t, http.StatusOK, status)
	var anonUnread feed
	require.NoError(t, json.Unmarshal(env.Data, &anonUnread))
	assert.Empty(t, anonUnread.Items)

	status, _ = api.do(t, http.MethodGet, "/api/v1/notifications", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(t, http.MethodGet, "/api/v1/notifications?audit=true", api.token(t, api.member), "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestReadState(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	start := time.Now().Add(-time.Hour).UnixMilli()
	memberID, otherID := api.member.ID, api.other.ID

	own, err := api.store.Create(ctx, &notifmodels.Notification{RecipientRef: &memberID, StartAt: start, CreatedAt: start})
	require.NoError(t, err)
	_, err = api.store.Create(ctx, &notifmodels.Notification{RecipientRef: &memberID, StartAt: start, CreatedAt: start})
	require.NoError(t, err)
	foreign, err := api.store.Create(ctx, &notifmodels.Notification{RecipientRef: &otherID, StartAt: start, CreatedAt: start})
	require.NoError(t, err)

	token := api.token(t, api.member)

	status, _ := api.do(t, http.MethodGet, "/api/v1/notifications/unread-count", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := api.do(t, http.MethodGet, "/api/v1/notifications/unread-count", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"count":2}`, string(env.Data))

	status, _ = api.do(t, http.MethodPut, "/api/v1/notifications/"+foreign.ID.Hex()+"/read", token, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(t, http.MethodPut, "/api/v1/notifications/not-an-id/read", token, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = api.do(t, http.MethodPut, "/api/v1/notifications/"+own.ID.Hex()+"/read", token, "")
	require.Equal(t, http.StatusOK, status)
	var marked notifmodels.Notification
	require.NoError(t, json.Unmarshal(env.Data, &marked))
	assert.True(t, marked.IsRead)
	assert.NotNil(t, marked.ReadAt)

	status, env = api.do(t, http.MethodPut, "/api/v1/notifications/read-all", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"modified":1}`, string(env.Data))

	status, env = api.do(t, http.MethodPut, "/api/v1/notifications/read-many", api.token(t, api.other), `{"ids":["`+foreign.ID.Hex()+`"]}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"modified":1}`, string(env.Data))
}

func TestDeleteAndDeliveryLogs_AdminOnly(t *testing.T) {
	api := newTestAPI(t)
	start := time.Now().Add(-time.Hour).UnixMilli()
	memberID := api.member.ID
	n, err := api.store.Create(context.Background(), &notifmodels.Notification{RecipientRef: &memberID, StartAt: start, CreatedAt: start})
	require.NoError(t, err)

	path := "/api/v1/notifications/" + n.ID.Hex()

	status, _ := api.do(t, http.MethodGet, path+"/deliveries", api.token(t, api.member), "")
	assert.Equal(t, http.StatusForbidden, status)

	status, env := api.do(t, http.MethodGet, path+"/deliveries", api.token(t, api.admin), "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"items":[]`)

	status, _ = api.do(t, http.MethodDelete, path, api.token(t, api.member), "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(t, http.MethodDelete, path, api.token(t, api.admin), "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.do(t, http.MethodDelete, path, api.token(t, api.admin), "")
	assert.Equal(t, http.StatusNotFound, status)
}
