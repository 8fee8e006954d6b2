// Package binding describes the named configuration sources served by
// confkitd. A Spec is the declarative form found in the config file or sent
// over the API; a Binding is the live form holding the wrapped resource and
// the content type used to read it.
package binding

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/lc/confkit/pkg/content"
	"github.com/lc/confkit/pkg/resource"
)

// ErrInvalidSpec is returned when a Spec cannot be turned into a Binding.
var ErrInvalidSpec = errors.New("invalid binding")

// Caching policy names.
const (
	CachingConstant  = "constant"
	CachingTimestamp = "timestamp"
	CachingReload    = "reload"
)

// Spec declares a named source. Exactly one of Path, URL or Text is set.
type Spec struct {
	Name     string `yaml:"name" json:"name"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Text     string `yaml:"text,omitempty" json:"text,omitempty"`
	Format   string `yaml:"format,omitempty" json:"format,omitempty"`   // json|yaml|properties|text
	Caching  string `yaml:"caching,omitempty" json:"caching,omitempty"` // constant|timestamp|reload
	Encoding string `yaml:"encoding,omitempty" json:"encoding,omitempty"`
}

// Validate checks that the spec names a single source and that its format,
// caching policy and encoding are all known.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidSpec)
	}

	sources := 0
	for _, v := range []string{s.Path, s.URL, s.Text} {
		if v != "" {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("%w: %q must set exactly one of path, url or text", ErrInvalidSpec, s.Name)
	}

	if s.URL != "" {
		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q has an invalid url %q", ErrInvalidSpec, s.Name, s.URL)
		}
	}
	if _, err := Strategy(s.Caching); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSpec, s.Name, err)
	}
	if _, err := s.FormatName(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSpec, s.Name, err)
	}
	if s.Encoding != "" {
		if _, err := resource.LookupEncoding(s.Encoding); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidSpec, s.Name, err)
		}
	}
	return nil
}

// FormatName returns the explicit format, or the one implied by the source:
// the extension of Path or of the URL path, and text for inline sources.
func (s Spec) FormatName() (string, error) {
	if f := strings.ToLower(strings.TrimSpace(s.Format)); f != "" {
		if _, err := content.ByName(f); err != nil {
			return "", err
		}
		return canonical(f), nil
	}
	switch {
	case s.Path != "":
		return content.FormatOf(s.Path)
	case s.URL != "":
		u, err := url.Parse(s.URL)
		if err != nil {
			return "", err
		}
		return content.FormatOf(u.Path)
	default:
		return content.FormatText, nil
	}
}

// CachingName returns the caching policy, defaulting to reload.
func (s Spec) CachingName() string {
	if c := strings.ToLower(strings.TrimSpace(s.Caching)); c != "" {
		return c
	}
	return CachingReload
}

// Source describes where the content comes from.
func (s Spec) Source() string {
	switch {
	case s.Path != "":
		return "file:" + s.Path
	case s.URL != "":
		return s.URL
	default:
		return "text"
	}
}

// Strategy returns the caching strategy for a policy name. The empty name
// selects reload.
func Strategy(name string) (resource.CachingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case CachingConstant:
		return resource.Constant(), nil
	case CachingTimestamp:
		return resource.Timestamp(), nil
	case CachingReload, "":
		return resource.Reload(), nil
	}
	return nil, fmt.Errorf("unknown caching policy %q", name)
}

func canonical(format string) string {
	switch format {
	case "json5":
		return content.FormatJSON
	case "yml":
		return content.FormatYAML
	case "props":
		return content.FormatProperties
	case "txt":
		return content.FormatText
	}
	return format
}

// Binding is a live, named source.
type Binding struct {
	ID        string
	Spec      Spec
	Format    string
	Resource  resource.Resource
	Content   content.ContentType
	CreatedAt time.Time
}

// Info is the serializable summary of a Binding.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Format    string    `json:"format"`
	Caching   string    `json:"caching"`
	Encoding  string    `json:"encoding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Info summarizes the binding.
func (b *Binding) Info() Info {
	return Info{
		ID:        b.ID,
		Name:      b.Spec.Name,
		Source:    b.Spec.Source(),
		Format:    b.Format,
		Caching:   b.Spec.CachingName(),
		Encoding:  b.Spec.Encoding,
		CreatedAt: b.CreatedAt,
	}
}

// Build validates spec and creates the resource and content type it
// describes. File sources are opened on fs.
func Build(fs afero.Fs, spec Spec, opts ...content.Option) (*Binding, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	format, err := spec.FormatName()
	if err != nil {
		return nil, err
	}
	ct, err := content.ByName(format, opts...)
	if err != nil {
		return nil, err
	}
	strategy, err := Strategy(spec.Caching)
	if err != nil {
		return nil, err
	}

	var resOpts []resource.Option
	if spec.Encoding != "" {
		resOpts = append(resOpts, resource.WithEncoding(spec.Encoding))
	}

	var res resource.Resource
	switch {
	case spec.Path != "":
		res, err = resource.NewFile(fs, spec.Path, resOpts...)
	case spec.URL != "":
		res, err = resource.NewURL(spec.URL, resOpts...)
	default:
		res = resource.NewString(spec.Text)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSpec, spec.Name, err)
	}

	return &Binding{
		ID:        uuid.NewString(),
		Spec:      spec,
		Format:    format,
		Resource:  resource.Cache(res, strategy),
		Content:   ct,
		CreatedAt: time.Now(),
	}, nil
}
