package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr only", "203.0.113.7:4411", nil, "203.0.113.7"},
		{"x-forwarded-for wins", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1"}, "198.51.100.9"},
		{"skips garbage xff entries", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "unknown, 198.51.100.9"}, "198.51.100.9"},
		{"x-real-ip fallback", "10.0.0.1:80", map[string]string{"X-Real-Ip": "192.0.2.44"}, "192.0.2.44"},
		{"unparseable remote", "not-an-addr", nil, ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = c.remote
			for k, v := range c.headers {
				r.Header.Set(k, v)
			}
			got := clientIP(r)
			if c.want == "" {
				if got != nil {
					t.Fatalf("clientIP = %v, want nil", got)
				}
				return
			}
			if got == nil || got.String() != c.want {
				t.Fatalf("clientIP = %v, want %s", got, c.want)
			}
		})
	}
}

func TestEnrichAttachesInfo(t *testing.T) {
	var seen *Info
	h := Enrich(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	r := httptest.NewRequest("GET", "/tenant/members", nil)
	r.RemoteAddr = "203.0.113.7:9000"
	r.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if seen == nil {
		t.Fatal("Info missing from context")
	}
	if seen.IPString() != "203.0.113.7" {
		t.Fatalf("ip = %q", seen.IPString())
	}
	if seen.UA.Browser != "Chrome" {
		t.Fatalf("browser = %q", seen.UA.Browser)
	}
	if seen.UA.Device != "Desktop" {
		t.Fatalf("device = %q", seen.UA.Device)
	}
	if seen.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if FromContext(r.Context()) != nil {
		t.Fatal("expected nil Info on bare context")
	}
}
