package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketadmin/internal/domain"
	"marketadmin/internal/listing"
)

type employer struct {
	ID      string `json:"id"`
	Company string `json:"company"`
	Status  string `json:"status"`
}

func newResource(t *testing.T, h http.HandlerFunc) Resource[employer] {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return Resource[employer]{Client: New(srv.URL+"/", "svc-token", time.Second), Name: "employers"}
}

func TestListSendsScopeAndDecodes(t *testing.T) {
	r := newResource(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet || req.URL.Path != "/api/employers" {
			t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("role") != "admin" || q.Get("id") != "u-1" || q.Get("type") != "employers" {
			t.Errorf("scope not forwarded: %v", q)
		}
		if req.Header.Get("Authorization") != "Bearer svc-token" {
			t.Errorf("missing token")
		}
		_, _ = io.WriteString(w, `{"success":true,"employers":[{"id":"e1","company":"Acme","status":"Verified"},{"id":"e2","company":"Globex","status":"Pending"}]}`)
	})

	items, err := r.List(context.Background(), listing.Scope{"role": "admin", "id": "u-1", "type": "employers"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[1].Company != "Globex" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestListApplicationErrorKeepsMessage(t *testing.T) {
	r := newResource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"Company account suspended"}`)
	})
	_, err := r.List(context.Background(), nil)
	if !domain.IsApplication(err) || err.Error() != "Company account suspended" {
		t.Fatalf("expected application error with message, got %v", err)
	}
}

func TestListTransportErrors(t *testing.T) {
	r := newResource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	_, err := r.List(context.Background(), nil)
	if !domain.IsTransport(err) || err.Error() != "failed to load employers" {
		t.Fatalf("expected generic transport error, got %v", err)
	}

	dead := Resource[employer]{Client: New("http://127.0.0.1:1", "", 200*time.Millisecond), Name: "employers"}
	if _, err := dead.List(context.Background(), nil); !domain.IsTransport(err) {
		t.Fatalf("expected transport error for refused connection, got %v", err)
	}
}

func TestListWithoutCollectionKey(t *testing.T) {
	r := newResource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"message":"ok"}`)
	})
	if _, err := r.List(context.Background(), nil); !domain.IsTransport(err) {
		t.Fatalf("expected transport error for missing key, got %v", err)
	}

	r = newResource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"employers":null}`)
	})
	items, err := r.List(context.Background(), nil)
	if err != nil || items == nil || len(items) != 0 {
		t.Fatalf("null list should read as empty, got %v %v", items, err)
	}
}

func TestListHonoursContext(t *testing.T) {
	release := make(chan struct{})
	r := newResource(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = io.WriteString(w, `{"success":true,"employers":[]}`)
	})
	defer close(release)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.List(ctx, nil); !domain.IsTransport(err) {
		t.Fatalf("expected transport error on cancelled context, got %v", err)
	}
}

func TestCreateDecodesItemOrAcknowledgement(t *testing.T) {
	var body map[string]any
	r := newResource(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			t.Errorf("unexpected method %s", req.Method)
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body["company"] == "Ack Only" {
			_, _ = io.WriteString(w, `{"success":true}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"employer":{"id":"e9","company":"Initech","status":"Pending"}}`)
	})

	saved, err := r.Create(context.Background(), nil, employer{Company: "Initech"})
	if err != nil || saved.ID != "e9" {
		t.Fatalf("expected saved item, got %+v %v", saved, err)
	}
	if body["company"] != "Initech" {
		t.Fatalf("unexpected body %v", body)
	}

	ack, err := r.Create(context.Background(), nil, employer{Company: "Ack Only"})
	if err != nil || ack.ID != "" {
		t.Fatalf("expected bare acknowledgement, got %+v %v", ack, err)
	}
}

func TestUpdateAndDeleteRequests(t *testing.T) {
	r := newResource(t, func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPut:
			if req.URL.Path != "/api/employers/e%2F1" && req.URL.RawPath != "/api/employers/e%2F1" {
				t.Errorf("unexpected path %s", req.URL.Path)
			}
			_, _ = io.WriteString(w, `{"success":true,"data":{"id":"e/1","company":"Acme","status":"Verified"}}`)
		case http.MethodDelete:
			q := req.URL.Query()
			if q.Get("id") != "e/1" || q.Get("role") != "admin" {
				t.Errorf("unexpected delete query %v", q)
			}
			_, _ = io.WriteString(w, `{"success":false,"message":"Employer has open jobs"}`)
		}
	})

	got, err := r.Update(context.Background(), nil, "e/1", listing.Patch{"status": "Verified"})
	if err != nil || got.Status != "Verified" {
		t.Fatalf("update: %+v %v", got, err)
	}
	err = r.Delete(context.Background(), listing.Scope{"role": "admin", "id": "u-1"}, "e/1")
	if !domain.IsApplication(err) || err.Error() != "Employer has open jobs" {
		t.Fatalf("expected application error, got %v", err)
	}
}
