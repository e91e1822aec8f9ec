package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New("ftp://example.com/api", time.Second)
	assert.Error(t, err)

	c, err := New("http://localhost:5000/api/", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", c.BaseURL())
	assert.Equal(t, "http://localhost:5000/api/cart/1", c.URL("/cart/1"))
}

func TestClient_DoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body["email"])
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/api", time.Second)
	require.NoError(t, err)

	var out map[string]string
	err = c.Do(context.Background(), http.MethodPost, "/login", map[string]string{"email": "a@b.c"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "yes", out["ok"])
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		fallback string
		want     string
	}{
		{"msg field wins", http.StatusUnauthorized, `{"msg":"Invalid credentials","message":"other"}`, "Login failed", "Invalid credentials"},
		{"message field", http.StatusBadRequest, `{"message":"Villa not found"}`, "x", "Villa not found"},
		{"error field", http.StatusConflict, `{"error":"email taken"}`, "x", "email taken"},
		{"no body", http.StatusInternalServerError, ``, "Signup failed", "Signup failed"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "Signup failed", "Signup failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, err := New(srv.URL, time.Second)
			require.NoError(t, err)
			err = c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.want, UserMessage(err, tt.fallback))
		})
	}
}

func TestUserMessage_TransportFailure(t *testing.T) {
	c, err := New("http://127.0.0.1:1", 200*time.Millisecond)
	require.NoError(t, err)
	err = c.Do(context.Background(), http.MethodGet, "/villas", nil, nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, "Failed to fetch villas", UserMessage(err, "Failed to fetch villas"))
	assert.Equal(t, "fallback", UserMessage(errors.New("boom"), "fallback"))
}

func TestClient_WithJarSendsCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc", Path: "/"})
		case "/cart":
			ck, err := r.Cookie("token")
			if err != nil || ck.Value != "abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `[]`)
		}
	}))
	defer srv.Close()

	base, err := New(srv.URL, time.Second)
	require.NoError(t, err)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c := base.WithJar(jar)

	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/login", nil, nil))
	var items []any
	require.NoError(t, c.Get(context.Background(), "/cart", nil, &items))

	err = base.Get(context.Background(), "/cart", nil, &items)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestClient_DoMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Sea View", r.FormValue("title"))
		assert.Equal(t, `{"pool":true}`, r.FormValue("amenities"))
		files := r.MultipartForm.File["photos"]
		if !assert.Len(t, files, 2) {
			return
		}
		assert.Equal(t, "a.jpg", files[0].Filename)
		_, _ = io.WriteString(w, `{"_id":"v1"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)
	form := NewForm().Set("title", "Sea View").Set("amenities", `{"pool":true}`).
		Attach(File{Field: "photos", Name: "a.jpg", ContentType: "image/jpeg", Data: []byte{1}}).
		Attach(File{Field: "photos", Name: "b.jpg", Data: []byte{2}})

	var out struct {
		ID string `json:"_id"`
	}
	require.NoError(t, c.DoMultipart(context.Background(), http.MethodPost, "/villas", form, &out))
	assert.Equal(t, "v1", out.ID)
}
