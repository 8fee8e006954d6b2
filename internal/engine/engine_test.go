package engine

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/lc/confkit/internal/binding"
	"github.com/lc/confkit/pkg/content"
	"github.com/lc/confkit/pkg/resource"
)

type EngineTestSuite struct {
	suite.Suite
	fs  afero.Fs
	eng *Engine
}

func (s *EngineTestSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.eng = New(s.fs, 0)
}

func (s *EngineTestSuite) writeFile(path, text string, mtime time.Time) {
	s.Require().NoError(afero.WriteFile(s.fs, path, []byte(text), 0o644))
	s.Require().NoError(s.fs.Chtimes(path, mtime, mtime))
}

func (s *EngineTestSuite) TestLoad() {
	// Given
	s.writeFile("/etc/app.yaml", "a: 1\n", time.Now())
	specs := []binding.Spec{
		{Name: "app", Path: "/etc/app.yaml", Caching: binding.CachingTimestamp},
		{Name: "inline", Text: "x=1", Format: "properties"},
		{Name: "broken"},
	}

	// When
	err := s.eng.Load(specs)

	// Then
	s.ErrorIs(err, binding.ErrInvalidSpec)
	s.Equal(2, s.eng.Len())
	snap := s.eng.Snapshot()
	s.Require().Len(snap, 2)
	s.Equal("app", snap[0].Spec.Name)
	s.Equal("inline", snap[1].Spec.Name)
}

func (s *EngineTestSuite) TestText() {
	testCases := []struct {
		name    string
		spec    binding.Spec
		ref     string
		want    string
		wantErr error
	}{
		{
			name: "inline",
			spec: binding.Spec{Name: "greeting", Text: "hello"},
			ref:  "greeting",
			want: "hello",
		},
		{
			name: "case-insensitive name",
			spec: binding.Spec{Name: "Greeting", Text: "hi"},
			ref:  "GREETING",
			want: "hi",
		},
		{
			name:    "unknown binding",
			spec:    binding.Spec{Name: "a", Text: "x"},
			ref:     "b",
			wantErr: ErrNotFound,
		},
		{
			name:    "missing file",
			spec:    binding.Spec{Name: "f", Path: "/nope.txt"},
			ref:     "f",
			wantErr: resource.ErrSourceUnavailable,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			_, err := s.eng.Bind(tc.spec)
			s.Require().NoError(err)

			got, err := s.eng.Text(tc.ref)
			if tc.wantErr != nil {
				s.ErrorIs(err, tc.wantErr)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.want, got)
		})
	}
}

func (s *EngineTestSuite) TestTextByID() {
	b, err := s.eng.Bind(binding.Spec{Name: "t", Text: "by id"})
	s.Require().NoError(err)

	got, err := s.eng.Text(b.ID)
	s.Require().NoError(err)
	s.Equal("by id", got)
}

func (s *EngineTestSuite) TestDocument() {
	// Given
	s.writeFile("/etc/app.json", `{"db": {"host": "h", "ports": [1, 2]}}`, time.Now())
	_, err := s.eng.Bind(binding.Spec{Name: "app", Path: "/etc/app.json"})
	s.Require().NoError(err)
	_, err = s.eng.Bind(binding.Spec{Name: "note", Text: "plain"})
	s.Require().NoError(err)
	_, err = s.eng.Bind(binding.Spec{Name: "bad", Text: "{", Format: "json"})
	s.Require().NoError(err)

	// When
	doc, err := s.eng.Document("app")

	// Then
	s.Require().NoError(err)
	s.Equal(map[string]string{"db.host": "h", "db.ports[0]": "1", "db.ports[1]": "2"}, doc)

	_, err = s.eng.Document("note")
	s.ErrorIs(err, ErrNotDocument)
	_, err = s.eng.Document("bad")
	s.ErrorIs(err, content.ErrMalformed)
	_, err = s.eng.Document("missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *EngineTestSuite) TestTimestampBindingSeesRewrites() {
	// Given
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.writeFile("/etc/app.properties", "a=1", base)
	_, err := s.eng.Bind(binding.Spec{Name: "app", Path: "/etc/app.properties", Caching: "timestamp"})
	s.Require().NoError(err)

	doc, err := s.eng.Document("app")
	s.Require().NoError(err)
	s.Equal(map[string]string{"a": "1"}, doc)

	// When
	s.writeFile("/etc/app.properties", "a=2", base.Add(time.Minute))

	// Then
	doc, err = s.eng.Document("app")
	s.Require().NoError(err)
	s.Equal(map[string]string{"a": "2"}, doc)
}

func (s *EngineTestSuite) TestConstantBindingKeepsFirstRead() {
	s.writeFile("/etc/app.txt", "v1", time.Now())
	_, err := s.eng.Bind(binding.Spec{Name: "app", Path: "/etc/app.txt", Caching: "constant"})
	s.Require().NoError(err)

	first, err := s.eng.Text("app")
	s.Require().NoError(err)
	s.writeFile("/etc/app.txt", "v2", time.Now().Add(time.Hour))
	second, err := s.eng.Text("app")
	s.Require().NoError(err)

	s.Equal("v1", first)
	s.Equal("v1", second)
}

func (s *EngineTestSuite) TestRebindReplaces() {
	first, err := s.eng.Bind(binding.Spec{Name: "t", Text: "one"})
	s.Require().NoError(err)
	second, err := s.eng.Bind(binding.Spec{Name: "t", Text: "two"})
	s.Require().NoError(err)

	s.NotEqual(first.ID, second.ID)
	s.Equal(1, s.eng.Len())
	got, err := s.eng.Text("t")
	s.Require().NoError(err)
	s.Equal("two", got)
	_, err = s.eng.Get(first.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *EngineTestSuite) TestUnbind() {
	a, err := s.eng.Bind(binding.Spec{Name: "a", Text: "1"})
	s.Require().NoError(err)
	_, err = s.eng.Bind(binding.Spec{Name: "b", Text: "2"})
	s.Require().NoError(err)

	removed, err := s.eng.Unbind(a.ID)
	s.Require().NoError(err)
	s.Equal("a", removed.Spec.Name)

	removed, err = s.eng.Unbind("b")
	s.Require().NoError(err)
	s.Equal("b", removed.Spec.Name)

	_, err = s.eng.Unbind("b")
	s.ErrorIs(err, ErrNotFound)
	s.Zero(s.eng.Len())
}

func (s *EngineTestSuite) TestWarm() {
	// Given
	s.writeFile("/etc/ok.json", `{"a": 1}`, time.Now())
	s.Require().NoError(s.eng.Load([]binding.Spec{
		{Name: "ok", Path: "/etc/ok.json", Caching: "constant"},
		{Name: "gone", Path: "/etc/gone.json"},
		{Name: "text", Text: "t"},
	}))

	// When
	err := s.eng.Warm(context.Background())

	// Then
	s.ErrorIs(err, resource.ErrSourceUnavailable)
	s.Contains(err.Error(), "gone")

	// constant binding was populated by Warm
	s.Require().NoError(s.fs.Remove("/etc/ok.json"))
	doc, err := s.eng.Document("ok")
	s.Require().NoError(err)
	s.Equal(map[string]string{"a": "1"}, doc)
}

func (s *EngineTestSuite) TestWarmCancelled() {
	s.Require().NoError(s.eng.Load([]binding.Spec{{Name: "t", Text: "x"}}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.eng.Warm(ctx)

	s.ErrorIs(err, context.Canceled)
}

func (s *EngineTestSuite) TestRunAndClose() {
	testCases := []struct {
		name     string
		interval time.Duration
	}{
		{name: "periodic check", interval: 5 * time.Millisecond},
		{name: "check disabled", interval: 0},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			eng := New(s.fs, tc.interval)
			s.Require().NoError(eng.Load([]binding.Spec{{Name: "missing", Path: "/x.json"}}))

			eng.Run(context.Background())
			time.Sleep(20 * time.Millisecond)

			done := make(chan struct{})
			go func() {
				eng.Close()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				s.Fail("engine did not stop")
			}
		})
	}
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
