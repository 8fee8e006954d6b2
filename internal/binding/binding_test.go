package binding

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/lc/confkit/pkg/content"
	"github.com/lc/confkit/pkg/resource"
)

type BindingTestSuite struct {
	suite.Suite
	fs afero.Fs
}

func (s *BindingTestSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
}

func (s *BindingTestSuite) TestValidate() {
	testCases := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{name: "file with extension", spec: Spec{Name: "app", Path: "/etc/app.json"}},
		{name: "url with format", spec: Spec{Name: "r", URL: "https://example.com/cfg", Format: "yaml"}},
		{name: "inline text", spec: Spec{Name: "t", Text: "a=1", Format: "properties", Caching: "constant"}},
		{name: "encoding", spec: Spec{Name: "l", Path: "a.properties", Encoding: "iso-8859-1"}},
		{name: "missing name", spec: Spec{Path: "/etc/app.json"}, wantErr: true},
		{name: "blank name", spec: Spec{Name: "  ", Path: "/etc/app.json"}, wantErr: true},
		{name: "no source", spec: Spec{Name: "x"}, wantErr: true},
		{name: "two sources", spec: Spec{Name: "x", Path: "a.json", Text: "{}"}, wantErr: true},
		{name: "bad url scheme", spec: Spec{Name: "x", URL: "ftp://h/a.json"}, wantErr: true},
		{name: "relative url", spec: Spec{Name: "x", URL: "/a.json"}, wantErr: true},
		{name: "unknown caching", spec: Spec{Name: "x", Path: "a.json", Caching: "forever"}, wantErr: true},
		{name: "unknown format", spec: Spec{Name: "x", Path: "a.json", Format: "toml"}, wantErr: true},
		{name: "undetectable format", spec: Spec{Name: "x", Path: "/etc/app.conf"}, wantErr: true},
		{name: "unknown encoding", spec: Spec{Name: "x", Path: "a.json", Encoding: "klingon-7"}, wantErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := tc.spec.Validate()
			if tc.wantErr {
				s.ErrorIs(err, ErrInvalidSpec)
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *BindingTestSuite) TestFormatName() {
	testCases := []struct {
		name string
		spec Spec
		want string
	}{
		{name: "explicit wins", spec: Spec{Path: "a.json", Format: "YAML"}, want: content.FormatYAML},
		{name: "alias", spec: Spec{Text: "x", Format: "yml"}, want: content.FormatYAML},
		{name: "path extension", spec: Spec{Path: "/etc/a.properties"}, want: content.FormatProperties},
		{name: "url path", spec: Spec{URL: "https://h/cfg/a.yml?v=2"}, want: content.FormatYAML},
		{name: "inline defaults to text", spec: Spec{Text: "x"}, want: content.FormatText},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, err := tc.spec.FormatName()
			s.Require().NoError(err)
			s.Equal(tc.want, got)
		})
	}
}

func (s *BindingTestSuite) TestStrategy() {
	testCases := []struct {
		name string
		want resource.CachingStrategy
	}{
		{name: "", want: resource.Reload()},
		{name: "reload", want: resource.Reload()},
		{name: " Constant ", want: resource.Constant()},
		{name: "timestamp", want: resource.Timestamp()},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, err := Strategy(tc.name)
			s.Require().NoError(err)
			s.IsType(tc.want, got)
		})
	}

	_, err := Strategy("lru")
	s.Error(err)
}

func (s *BindingTestSuite) TestBuildFile() {
	// Given
	s.Require().NoError(afero.WriteFile(s.fs, "/etc/app.json", []byte(`{"a": {"b": 1}}`), 0o644))
	spec := Spec{Name: "app", Path: "/etc/app.json", Caching: CachingTimestamp}

	// When
	b, err := Build(s.fs, spec)

	// Then
	s.Require().NoError(err)
	s.NotEmpty(b.ID)
	s.Equal(content.FormatJSON, b.Format)
	s.IsType(&content.JSON{}, b.Content)
	s.IsType(&resource.Cached{}, b.Resource)
	s.False(b.CreatedAt.IsZero())

	doc, err := b.Content.(content.DocumentType).Document(b.Resource)
	s.Require().NoError(err)
	s.Equal(map[string]string{"a.b": "1"}, doc.Flatten())

	info := b.Info()
	s.Equal("app", info.Name)
	s.Equal("file:/etc/app.json", info.Source)
	s.Equal("timestamp", info.Caching)
}

func (s *BindingTestSuite) TestBuildText() {
	b, err := Build(s.fs, Spec{Name: "t", Text: "hello"})
	s.Require().NoError(err)

	// reload wraps nothing
	s.IsType(&resource.String{}, b.Resource)
	text, err := resource.ReadText(b.Resource)
	s.Require().NoError(err)
	s.Equal("hello", text)
	s.Equal("reload", b.Info().Caching)
	s.Equal("text", b.Info().Source)
}

func (s *BindingTestSuite) TestBuildIDsAreUnique() {
	a, err := Build(s.fs, Spec{Name: "t", Text: "x"})
	s.Require().NoError(err)
	b, err := Build(s.fs, Spec{Name: "t", Text: "x"})
	s.Require().NoError(err)

	s.NotEqual(a.ID, b.ID)
}

func (s *BindingTestSuite) TestBuildRejectsInvalid() {
	_, err := Build(s.fs, Spec{Name: "t"})
	s.ErrorIs(err, ErrInvalidSpec)
}

func TestBindingSuite(t *testing.T) {
	suite.Run(t, new(BindingTestSuite))
}
