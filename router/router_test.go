package router

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/compression"
	"github.com/nczempin/httpd-go-uring/files"
	"github.com/nczempin/httpd-go-uring/protocol"
)

type recordingFiles struct {
	name string
	req  *protocol.HttpRequest
}

func (f *recordingFiles) Serve(req *protocol.HttpRequest, name string) *protocol.HttpResponse {
	f.name = name
	f.req = req
	return &protocol.HttpResponse{Status: protocol.StatusCreated}
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	return New(files.NewHandler(t.TempDir(), zerolog.Nop()), zerolog.Nop())
}

// serveRaw runs raw request bytes through parse, route and build
func serveRaw(t *testing.T, rt *Router, raw string) string {
	t.Helper()

	req, err := protocol.NewRequestReader(strings.NewReader(raw)).ReadRequest()
	if err != nil {
		t.Fatalf("ReadRequest(%q) failed: %v", raw, err)
	}
	return string(rt.Route(req).Bytes())
}

func request(path string, headers ...protocol.HttpHeader) *protocol.HttpRequest {
	return &protocol.HttpRequest{Method: protocol.MethodGet, Path: path, Version: "HTTP/1.1", Headers: headers}
}

func TestRouter_Root(t *testing.T) {
	actual := serveRaw(t, newTestRouter(t), "GET / HTTP/1.1\r\n\r\n")
	if actual != "HTTP/1.1 200 OK\r\n\r\n" {
		t.Errorf("Expected bare 200, got %q", actual)
	}
}

func TestRouter_Echo(t *testing.T) {
	actual := serveRaw(t, newTestRouter(t), "GET /echo/abc HTTP/1.1\r\n\r\n")
	expected := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 3\r\n" +
		"\r\n" +
		"abc"
	if actual != expected {
		t.Errorf("Expected %q, got %q", expected, actual)
	}
}

func TestRouter_EchoRoundTrip(t *testing.T) {
	rt := newTestRouter(t)
	for _, s := range []string{"a", "hello", "%41literal", "ünïcode", "x.y-z_1"} {
		req, err := protocol.NewRequestReader(strings.NewReader("GET /echo/" + s + " HTTP/1.1\r\n\r\n")).ReadRequest()
		if err != nil {
			t.Fatalf("ReadRequest failed: %v", err)
		}
		raw := rt.Route(req).Bytes()

		res, err := protocol.NewResponseReader(bytes.NewReader(raw)).ReadResponse()
		if err != nil {
			t.Fatalf("ReadResponse failed: %v", err)
		}
		if string(res.Body) != s {
			t.Errorf("Expected body %q, got %q", s, res.Body)
		}
		if res.ContentLength != len(s) {
			t.Errorf("Expected Content-Length %d, got %d", len(s), res.ContentLength)
		}
	}
}

func TestRouter_EchoBodyWins(t *testing.T) {
	res := newTestRouter(t).Route(&protocol.HttpRequest{
		Method: protocol.MethodPost,
		Path:   "/echo/path",
		Body:   []byte("from body"),
	})
	if string(res.Body) != "from body" {
		t.Errorf("Expected body content, got %q", res.Body)
	}
}

func TestRouter_EchoSegments(t *testing.T) {
	rt := newTestRouter(t)
	for _, path := range []string{"/echo", "/echo/a/b", "/echo/a/"} {
		if res := rt.Route(request(path)); res.Status != protocol.StatusNotFound {
			t.Errorf("Expected 404 for %q, got %s", path, res.Status)
		}
	}
	// "/echox/y" has the /echo prefix and three segments
	if res := rt.Route(request("/echox/y")); string(res.Body) != "y" {
		t.Errorf("Expected body %q, got %q", "y", res.Body)
	}
	if res := rt.Route(request("/echo/")); res.Status != protocol.StatusOK || len(res.Body) != 0 {
		t.Errorf("Expected empty 200 for /echo/, got %s %q", res.Status, res.Body)
	}
}

func TestRouter_EchoGzip(t *testing.T) {
	rt := newTestRouter(t)
	res := rt.Route(request("/echo/abc", protocol.HttpHeader{Key: "Accept-Encoding", Value: "gzip"}))

	expectedBody, err := compression.Gzip([]byte("abc"))
	if err != nil {
		t.Fatalf("Gzip failed: %v", err)
	}
	if !bytes.Equal(res.Body, expectedBody) {
		t.Errorf("Expected gzip body % x, got % x", expectedBody, res.Body)
	}

	expectedHeaders := protocol.HttpHeaders{
		{Key: "Content-Type", Value: "text/plain"},
		{Key: "Content-Encoding", Value: "gzip"},
		{Key: "Content-Length", Value: strconv.Itoa(len(expectedBody))},
	}
	if len(res.Headers) != len(expectedHeaders) {
		t.Fatalf("Expected headers %v, got %v", expectedHeaders, res.Headers)
	}
	for i := range expectedHeaders {
		if res.Headers[i] != expectedHeaders[i] {
			t.Errorf("Header %d: expected %v, got %v", i, expectedHeaders[i], res.Headers[i])
		}
	}
}

func TestNegotiate(t *testing.T) {
	cases := []struct {
		accept   string
		expected string
		ok       bool
	}{
		{"gzip", "gzip", true},
		{"invalid-encoding-1, gzip, invalid-encoding-2", "gzip", true},
		{"br;q=1.0, gzip;q=0.1", "", false},
		{"deflate,  gzip ", "gzip", true},
		{"invalid-encoding", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		name, ok := Negotiate(request("/echo/x", protocol.HttpHeader{Key: "Accept-Encoding", Value: c.accept}))
		if name != c.expected || ok != c.ok {
			t.Errorf("Negotiate(%q): expected (%q, %v), got (%q, %v)", c.accept, c.expected, c.ok, name, ok)
		}
	}

	if _, ok := Negotiate(request("/echo/x")); ok {
		t.Error("Expected no encoding without Accept-Encoding")
	}
}

func TestRouter_EchoUnsupportedEncoding(t *testing.T) {
	res := newTestRouter(t).Route(request("/echo/abc", protocol.HttpHeader{Key: "Accept-Encoding", Value: "invalid-encoding"}))
	if _, ok := res.Headers.Get("Content-Encoding"); ok {
		t.Error("Expected no Content-Encoding header")
	}
	if string(res.Body) != "abc" {
		t.Errorf("Expected identity body, got %q", res.Body)
	}
}

func TestRouter_UserAgent(t *testing.T) {
	actual := serveRaw(t, newTestRouter(t), "GET /user-agent HTTP/1.1\r\nUser-Agent: foobar/1.2.3\r\n\r\n")
	expected := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 12\r\n" +
		"\r\n" +
		"foobar/1.2.3"
	if actual != expected {
		t.Errorf("Expected %q, got %q", expected, actual)
	}
}

func TestRouter_UserAgentMissing(t *testing.T) {
	res := newTestRouter(t).Route(request("/user-agent"))
	if res.Status != protocol.StatusOK {
		t.Fatalf("Expected 200, got %s", res.Status)
	}
	if v, _ := res.Headers.Get("Content-Length"); v != "0" {
		t.Errorf("Expected Content-Length 0, got %q", v)
	}
	if len(res.Body) != 0 {
		t.Errorf("Expected empty body, got %q", res.Body)
	}
}

func TestRouter_ConnectionClose(t *testing.T) {
	rt := newTestRouter(t)
	closing := protocol.HttpHeader{Key: "Connection", Value: "close"}

	for _, path := range []string{"/echo/abc", "/user-agent"} {
		res := rt.Route(request(path, closing))
		last := res.Headers[len(res.Headers)-1]
		if last != closing {
			t.Errorf("%s: expected last header %v, got %v", path, closing, last)
		}
	}

	res := rt.Route(request("/echo/abc", protocol.HttpHeader{Key: "Connection", Value: "Close"}))
	if _, ok := res.Headers.Get("Connection"); ok {
		t.Error("Connection: Close is not an exact match and must not echo close")
	}
}

func TestWantsClose(t *testing.T) {
	if !request("/", protocol.HttpHeader{Key: "Connection", Value: "close"}).WantsClose() {
		t.Error("Expected close")
	}
	for _, h := range []protocol.HttpHeader{
		{Key: "Connection", Value: "keep-alive"},
		{Key: "connection", Value: "close"},
		{Key: "Connection", Value: "CLOSE"},
	} {
		if request("/", h).WantsClose() {
			t.Errorf("Expected no close for %v", h)
		}
	}
}

func TestRouter_FilesDelegation(t *testing.T) {
	fs := &recordingFiles{}
	rt := New(fs, zerolog.Nop())

	req := &protocol.HttpRequest{Method: protocol.MethodPost, Path: "/files/dir/note.txt", Body: []byte("hi")}
	if res := rt.Route(req); res.Status != protocol.StatusCreated {
		t.Errorf("Expected file server response verbatim, got %s", res.Status)
	}
	if fs.name != "dir/note.txt" {
		t.Errorf("Expected name %q, got %q", "dir/note.txt", fs.name)
	}
	if fs.req != req {
		t.Error("Expected the request to be passed through")
	}

	if res := rt.Route(request("/files")); res.Status != protocol.StatusNotFound {
		t.Errorf("Expected 404 for /files without slash, got %s", res.Status)
	}
}

func TestRouter_FilesScenario(t *testing.T) {
	rt := newTestRouter(t)

	created := serveRaw(t, rt, "POST /files/note.txt HTTP/1.1\r\nContent-Length: 2\r\n\r\nhi")
	if created != "HTTP/1.1 201 Created\r\n\r\n" {
		t.Fatalf("Expected 201 Created, got %q", created)
	}

	fetched := serveRaw(t, rt, "GET /files/note.txt HTTP/1.1\r\n\r\n")
	expected := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"Content-Length: 2\r\n" +
		"\r\n" +
		"hi"
	if fetched != expected {
		t.Errorf("Expected %q, got %q", expected, fetched)
	}

	missing := serveRaw(t, rt, "GET /files/missing.txt HTTP/1.1\r\n\r\n")
	if missing != "HTTP/1.1 404 Not Found\r\n\r\n" {
		t.Errorf("Expected 404 Not Found, got %q", missing)
	}
}

func TestRouter_UnknownPath(t *testing.T) {
	actual := serveRaw(t, newTestRouter(t), "GET /unknown HTTP/1.1\r\n\r\n")
	if actual != "HTTP/1.1 404 Not Found\r\n\r\n" {
		t.Errorf("Expected 404 Not Found, got %q", actual)
	}
}
