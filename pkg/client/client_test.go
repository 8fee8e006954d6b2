package client_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/lc/confkit/internal/binding"
	"github.com/lc/confkit/internal/engine"
	"github.com/lc/confkit/pkg/api"
	"github.com/lc/confkit/pkg/client"
)

type ClientTestSuite struct {
	suite.Suite
	tmpDir   string
	sockPath string
	server   *api.Server
	served   chan error
	client   *client.Client
}

func (s *ClientTestSuite) SetupTest() {
	var err error
	s.tmpDir, err = os.MkdirTemp("", "confkit-client-*")
	s.Require().NoError(err)
	s.sockPath = filepath.Join(s.tmpDir, "d.sock")

	fs := afero.NewMemMapFs()
	s.Require().NoError(afero.WriteFile(fs, "/etc/app.properties", []byte("a=1\nb=two\n"), 0o644))
	eng := engine.New(fs, 0)
	s.Require().NoError(eng.Load([]binding.Spec{
		{Name: "app", Path: "/etc/app.properties"},
	}))

	s.server = api.New(eng)
	s.served = make(chan error, 1)
	go func() { s.served <- s.server.ListenAndServe(s.sockPath) }()

	s.client = client.New(s.sockPath, client.WithStartupTimeout(2*time.Second))
}

func (s *ClientTestSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.NoError(s.server.Shutdown(ctx))
	s.ErrorIs(<-s.served, http.ErrServerClosed)
	os.RemoveAll(s.tmpDir)
}

func (s *ClientTestSuite) TestRoundTrip() {
	ctx := context.Background()

	// Given
	id, err := s.client.Bind(ctx, binding.Spec{Name: "motd", Text: "hello"})
	s.Require().NoError(err)
	s.NotEmpty(id)

	// When
	infos, err := s.client.Bindings(ctx)
	s.Require().NoError(err)
	text, err := s.client.Text(ctx, "motd")
	s.Require().NoError(err)
	doc, err := s.client.Document(ctx, "app")
	s.Require().NoError(err)
	status, err := s.client.Status(ctx)
	s.Require().NoError(err)

	// Then
	s.Require().Len(infos, 2)
	s.Equal("app", infos[0].Name)
	s.Equal(id, infos[1].ID)
	s.Equal("hello", text.Text)
	s.Equal("text", text.Format)
	s.Equal(map[string]string{"a": "1", "b": "two"}, doc.Entries)
	s.Equal(2, status.Bindings)

	s.Require().NoError(s.client.Unbind(ctx, id))
	_, err = s.client.Text(ctx, "motd")
	s.ErrorIs(err, client.ErrNotFound)
}

func (s *ClientTestSuite) TestErrors() {
	ctx := context.Background()

	_, err := s.client.Bind(ctx, binding.Spec{Name: "bad"})
	var apiErr *client.Error
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusBadRequest, apiErr.Status)
	s.Contains(apiErr.Message, "exactly one of path, url or text")
	s.NotErrorIs(err, client.ErrNotFound)

	_, err = s.client.Document(ctx, "a name with spaces&x=1")
	s.ErrorIs(err, client.ErrNotFound)
	s.Contains(err.Error(), "404")
}

func (s *ClientTestSuite) TestDaemonNotRunning() {
	c := client.New(filepath.Join(s.tmpDir, "missing.sock"), client.WithStartupTimeout(100*time.Millisecond))

	_, err := c.Status(context.Background())

	s.Error(err)
	s.Contains(err.Error(), "daemon not running")
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}
