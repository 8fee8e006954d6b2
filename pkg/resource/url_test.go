package resource_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lc/confkit/pkg/resource"
)

type URLTestSuite struct {
	suite.Suite
	server *httptest.Server
	mtime  time.Time
}

func (s *URLTestSuite) SetupTest() {
	s.mtime = time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/utf8", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Last-Modified", s.mtime.Format(http.TimeFormat))
		_, _ = w.Write([]byte(`{"name":"naïve"}`))
	})
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=ISO-8859-1")
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	})
	mux.HandleFunc("/garbled-date", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "yesterday-ish")
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	s.server = httptest.NewServer(mux)
}

func (s *URLTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *URLTestSuite) newURL(path string, opts ...resource.Option) *resource.URL {
	u, err := resource.NewURL(s.server.URL+path, append(opts, resource.WithHTTPClient(s.server.Client()))...)
	s.Require().NoError(err)
	return u
}

func (s *URLTestSuite) TestReadText() {
	tests := []struct {
		name string
		path string
		opts []resource.Option
		want string
	}{
		{name: "utf-8 by default", path: "/utf8", want: `{"name":"naïve"}`},
		{name: "charset from content type", path: "/latin1", want: "café"},
		{name: "explicit encoding wins", path: "/utf8", opts: []resource.Option{resource.WithEncoding("windows-1252")}, want: `{"name":"naÃ¯ve"}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := resource.ReadText(s.newURL(tt.path, tt.opts...))
			s.Require().NoError(err)
			s.Equal(tt.want, got)
		})
	}
}

func (s *URLTestSuite) TestReadBytesIsRaw() {
	got, err := resource.ReadBytes(s.newURL("/latin1"))
	s.Require().NoError(err)
	s.Equal([]byte{'c', 'a', 'f', 0xe9}, got)
}

func (s *URLTestSuite) TestLastModified() {
	tests := []struct {
		name string
		path string
		want time.Time
	}{
		{name: "parsed header", path: "/utf8", want: s.mtime},
		{name: "missing header", path: "/latin1", want: time.Time{}},
		{name: "malformed header", path: "/garbled-date", want: time.Time{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := s.newURL(tt.path).LastModified()
			s.Require().NoError(err)
			s.True(tt.want.Equal(got), "got %v", got)
		})
	}
}

func (s *URLTestSuite) TestErrorStatus() {
	u := s.newURL("/gone")

	_, err := resource.ReadText(u)
	s.ErrorIs(err, resource.ErrSourceUnavailable)

	_, err = u.LastModified()
	s.Error(err)
}

func TestURLSuite(t *testing.T) {
	suite.Run(t, new(URLTestSuite))
}
