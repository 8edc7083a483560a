package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/assets"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/audit"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/following"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/pipeline"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/response"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage/memory"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/validation"
	"github.com/antoinealex/eureka-empowerment-environment/internal/middleware"
)

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
	audit  *audit.Log
	auth   *middleware.Authenticator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	assetStore := assets.New(t.TempDir(), []string{"image/png"}, nil)
	pipe := pipeline.New(store, validation.New(nil), assetStore, nil, nil)
	auth := middleware.NewAuthenticator("test-secret", store, time.Hour, nil)
	auditLog := audit.NewLog(100, nil)
	builder := response.New(auditLog, nil)
	handler := New(pipe, following.NewLedger(nil), store, auth, builder, nil)

	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)
	return &testEnv{server: server, store: store, audit: auditLog, auth: auth}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, env.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func (env *testEnv) registerUser(t *testing.T, email string) (*model.User, string) {
	t.Helper()
	resp, body := env.do(t, http.MethodPost, "/user/register", "", map[string]interface{}{
		"email":     email,
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"password":  "engine-1843",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: %d %s", resp.StatusCode, body)
	}
	var payload []map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := payload[0]["id"].(string)

	found, err := env.store.FindByCriteria(context.Background(), model.KindUser, map[string]interface{}{"id": id})
	if err != nil || len(found) != 1 {
		t.Fatalf("stored user not found: %v", err)
	}
	user := found[0].(*model.User)
	token, err := env.auth.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token
}

func (env *testEnv) registerProject(t *testing.T, token, title string) string {
	t.Helper()
	resp, body := env.do(t, http.MethodPost, "/project/register", token, map[string]interface{}{
		"title":       title,
		"description": []string{"community garden"},
		"startDate":   "2026-09-01",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register project: %d %s", resp.StatusCode, body)
	}
	var payload []map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return payload[0]["id"].(string)
}

func TestUserRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.registerUser(t, "ada@example.com")

	resp, body := env.do(t, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email":    "ada@example.com",
		"password": "engine-1843",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %s", resp.StatusCode, body)
	}
	var reply map[string]string
	if err := json.Unmarshal(body, &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply["token"] == "" {
		t.Fatal("no token issued")
	}

	resp, body = env.do(t, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("bad login: %d %s", resp.StatusCode, body)
	}
}

func TestUserPayloadNeverCarriesPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "ada@example.com")

	resp, body := env.do(t, http.MethodGet, "/user/search?email=ada@example.com", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read: %d %s", resp.StatusCode, body)
	}
	if strings.Contains(string(body), "password") {
		t.Fatalf("password leaked: %s", body)
	}
}

func TestRegisterMissingRequiredField(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/user/register", "", map[string]interface{}{
		"email": "ada@example.com",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var reply struct {
		Error []struct {
			Field string `json:"field"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reply.Error) != 3 {
		t.Fatalf("expected 3 violations, got %s", body)
	}
}

func TestRegisterRejectsScriptedPayload(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/user/register", "", map[string]interface{}{
		"email":     "ada@example.com",
		"firstname": "<script>alert(1)</script>",
		"lastname":  "Lovelace",
		"password":  "pw",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "ACCESS_FORBIDDEN") {
		t.Fatalf("body %s", body)
	}
}

func TestReadUnknownCriteriaIsDataNotFound(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/project/public/missing", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if got := strings.TrimSpace(string(body)); got != `["DATA_NOT_FOUND"]` {
		t.Fatalf("body %s", got)
	}
}

func TestSearchWithoutDeclaredCriteriaIsMissingParam(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/user/search?bogus=1", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d %s", resp.StatusCode, body)
	}
	var reply map[string]string
	if err := json.Unmarshal(body, &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply["error"] != "missing parameter : email is required " {
		t.Fatalf("unexpected message %q", reply["error"])
	}
}

func TestPublicListReturnsEveryRecord(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "ada@example.com")
	env.registerUser(t, "grace@example.com")

	resp, body := env.do(t, http.MethodGet, "/user/public", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d %s", resp.StatusCode, body)
	}
	var payload []map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 2 {
		t.Fatalf("expected 2 users, got %s", body)
	}
}

func TestProjectRegisterEmbedsCreator(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.registerUser(t, "ada@example.com")
	id := env.registerProject(t, token, "greenhouse")

	resp, body := env.do(t, http.MethodGet, "/project/public/"+id, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read: %d %s", resp.StatusCode, body)
	}
	var payload []map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	creator, ok := payload[0]["creator"].(map[string]interface{})
	if !ok || creator["id"] != user.ID {
		t.Fatalf("creator not embedded: %s", body)
	}
}

func TestProjectUpdateByStrangerIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.registerUser(t, "ada@example.com")
	_, stranger := env.registerUser(t, "eve@example.com")
	id := env.registerProject(t, owner, "greenhouse")

	resp, body := env.do(t, http.MethodPost, "/project/update", stranger, map[string]interface{}{
		"id":    id,
		"title": "hijacked",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d %s", resp.StatusCode, body)
	}

	resp, body = env.do(t, http.MethodPost, "/project/update", owner, map[string]interface{}{
		"id":    id,
		"title": "orchard",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner update: %d %s", resp.StatusCode, body)
	}
	var payload []map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[0]["title"] != "orchard" {
		t.Fatalf("title not updated: %s", body)
	}
}

func TestUpdateWithoutTokenIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/project/update", "", map[string]interface{}{"id": "p1"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d %s", resp.StatusCode, body)
	}
}

func TestFollowIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.registerUser(t, "ada@example.com")
	_, follower := env.registerUser(t, "grace@example.com")
	id := env.registerProject(t, owner, "greenhouse")

	for i := 0; i < 2; i++ {
		resp, body := env.do(t, http.MethodPut, "/project/"+id+"/follow", follower, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("follow #%d: %d %s", i+1, resp.StatusCode, body)
		}
	}

	resp, body := env.do(t, http.MethodGet, "/project/"+id+"/followers", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("followers: %d %s", resp.StatusCode, body)
	}
	var payload []map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 1 {
		t.Fatalf("expected a single follower record, got %s", body)
	}
	if payload[0]["isFollowing"] != true {
		t.Fatalf("unexpected record: %s", body)
	}
}

func TestAssignTogglesAcrossRequests(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.registerUser(t, "ada@example.com")
	_, helperToken := env.registerUser(t, "grace@example.com")
	id := env.registerProject(t, owner, "greenhouse")

	teamSize := func() int {
		resp, body := env.do(t, http.MethodGet, "/project/"+id+"/team", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("team: %d %s", resp.StatusCode, body)
		}
		var payload []map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return len(payload)
	}

	if got := teamSize(); got != 1 {
		t.Fatalf("expected creator-only team, got %d", got)
	}

	if resp, body := env.do(t, http.MethodPut, "/project/"+id+"/assign", helperToken, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("assign: %d %s", resp.StatusCode, body)
	}
	if got := teamSize(); got != 2 {
		t.Fatalf("expected helper on team, got %d", got)
	}

	// The same action again flips the assignment off.
	if resp, body := env.do(t, http.MethodPut, "/project/"+id+"/assign", helperToken, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("assign: %d %s", resp.StatusCode, body)
	}
	if got := teamSize(); got != 1 {
		t.Fatalf("expected helper off team, got %d", got)
	}
}

func TestFollowUnknownProjectIsDataNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ada@example.com")

	resp, body := env.do(t, http.MethodPut, "/project/missing/follow", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if got := strings.TrimSpace(string(body)); got != `["DATA_NOT_FOUND"]` {
		t.Fatalf("body %s", got)
	}
}

func TestOrganizationNestsProjectsWithoutCycle(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ada@example.com")

	resp, body := env.do(t, http.MethodPost, "/organization/register", token, map[string]interface{}{
		"name":  "Solar Co-op",
		"email": "coop@example.com",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register org: %d %s", resp.StatusCode, body)
	}
	var orgs []map[string]interface{}
	if err := json.Unmarshal(body, &orgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	orgID := orgs[0]["id"].(string)

	resp, body = env.do(t, http.MethodPost, "/project/register", token, map[string]interface{}{
		"title":          "panels",
		"description":    []string{"rooftop"},
		"startDate":      "2026-09-01",
		"organizationId": orgID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register project: %d %s", resp.StatusCode, body)
	}

	resp, body = env.do(t, http.MethodGet, "/organization/public/"+orgID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read org: %d %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &orgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	projects, ok := orgs[0]["projects"].([]interface{})
	if !ok || len(projects) != 1 {
		t.Fatalf("projects not nested: %s", body)
	}
	nested := projects[0].(map[string]interface{})
	if _, reembedded := nested["organization"]; reembedded {
		t.Fatalf("nested project re-embeds its organization: %s", body)
	}

	// The other direction still embeds: a project read shows its organization.
	resp, body = env.do(t, http.MethodGet, "/project/search?organizationId="+orgID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read project: %d %s", resp.StatusCode, body)
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := list[0]["organization"].(map[string]interface{}); !ok {
		t.Fatalf("organization not embedded under project: %s", body)
	}
}

func TestPictureUploadRejectsUnsupportedMedia(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ada@example.com")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("picture", "cv.pdf")
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	fmt.Fprint(part, "%PDF-1.4")
	form.Close()

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/user/picture", &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestPictureUploadAndReadBack(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ada@example.com")

	png := []byte("\x89PNG\r\n\x1a\nfake")
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="picture"; filename="portrait.png"`},
		"Content-Type":        {"image/png"},
	})
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	part.Write(png)
	form.Close()

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/user/picture", &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: %d", resp.StatusCode)
	}

	readResp, body := env.do(t, http.MethodGet, "/user/search?email=ada@example.com", "", nil)
	if readResp.StatusCode != http.StatusOK {
		t.Fatalf("read: %d %s", readResp.StatusCode, body)
	}
	var users []map[string]interface{}
	if err := json.Unmarshal(body, &users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if users[0]["picture"] == nil || users[0]["picture"] == "" {
		t.Fatalf("picture not attached: %s", body)
	}
}

func TestSuccessfulMutationIsAudited(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ada@example.com")
	env.registerProject(t, token, "greenhouse")

	events := env.audit.List()
	var seen bool
	for _, ev := range events {
		if ev.Type == model.KindProject && ev.Description == "new registration" {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("project registration not audited: %+v", events)
	}
}
