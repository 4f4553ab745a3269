package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captured(t *testing.T, mw ...func(http.Handler) http.Handler) (http.Handler, *Principal) {
	t.Helper()
	var got Principal
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h, &got
}

func request(headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

var devGateway = StaticToken{Insecure: true}

func TestIdentify_ReadsGatewayHeaders(t *testing.T) {
	h, got := captured(t, Identify(devGateway))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(map[string]string{
		HeaderUserID: "u-1", HeaderUserEmail: "a@example.com", HeaderUserName: "Asha", HeaderUserRole: "admin",
	}))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, Principal{UserID: "u-1", Email: "a@example.com", Name: "Asha", Role: RoleAdmin}, *got)
}

func TestIdentify_UnknownRoleIsUser(t *testing.T) {
	h, got := captured(t, Identify(devGateway))
	h.ServeHTTP(httptest.NewRecorder(), request(map[string]string{HeaderUserID: "u-1", HeaderUserRole: "root"}))
	assert.Equal(t, RoleUser, got.Role)
}

func TestIdentify_RejectsWrongGatewayToken(t *testing.T) {
	h, got := captured(t, Identify(StaticToken{Token: "s3cret"}))

	h.ServeHTTP(httptest.NewRecorder(), request(map[string]string{HeaderUserID: "u-1", HeaderGatewayToken: "guess"}))
	assert.True(t, got.Anonymous())

	h.ServeHTTP(httptest.NewRecorder(), request(map[string]string{HeaderUserID: "u-1", HeaderGatewayToken: "s3cret"}))
	assert.Equal(t, "u-1", got.UserID)
}

func TestRequireUser(t *testing.T) {
	h, _ := captured(t, Identify(devGateway), RequireUser)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authorized, no token"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(map[string]string{HeaderUserID: "u-1"}))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	h, _ := captured(t, Identify(devGateway), RequireAdmin)

	cases := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"customer", map[string]string{HeaderUserID: "u-1"}, http.StatusForbidden},
		{"admin", map[string]string{HeaderUserID: "u-2", HeaderUserRole: "admin"}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, request(tc.headers))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestIdentify_NoTokenConfiguredIgnoresHeaders(t *testing.T) {
	h, got := captured(t, Identify(StaticToken{}), RequireAdmin)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(map[string]string{HeaderUserID: "attacker", HeaderUserRole: "admin"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, got.Anonymous())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(map[string]string{HeaderUserID: "attacker", HeaderUserRole: "admin", HeaderGatewayToken: ""}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaticToken_Validate(t *testing.T) {
	assert.ErrorIs(t, StaticToken{}.Validate(""), ErrUnauthorized)
	assert.ErrorIs(t, StaticToken{}.Validate("anything"), ErrUnauthorized)
	assert.NoError(t, StaticToken{Insecure: true}.Validate(""))
	assert.NoError(t, StaticToken{Token: "s3cret"}.Validate("s3cret"))
	assert.ErrorIs(t, StaticToken{Token: "s3cret", Insecure: true}.Validate(""), ErrUnauthorized)
}
