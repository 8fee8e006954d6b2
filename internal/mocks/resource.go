package mocks

import (
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lc/confkit/pkg/resource"
)

var (
	_ resource.Resource        = (*MockResource)(nil)
	_ resource.CachingStrategy = (*MockStrategy)(nil)
)

// MockResource is a testify mock of resource.Resource.
type MockResource struct {
	mock.Mock
}

// OpenBytes mocks the OpenBytes method.
func (m *MockResource) OpenBytes() (io.ReadCloser, error) {
	args := m.Called()
	// Need to handle potential nil interface return
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	return rc, args.Error(1)
}

// OpenText mocks the OpenText method.
func (m *MockResource) OpenText() (io.ReadCloser, error) {
	args := m.Called()
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	return rc, args.Error(1)
}

// LastModified mocks the LastModified method.
func (m *MockResource) LastModified() (time.Time, error) {
	args := m.Called()
	var t time.Time
	if args.Get(0) != nil {
		t = args.Get(0).(time.Time)
	}
	return t, args.Error(1)
}

// MockStrategy is a testify mock of resource.CachingStrategy.
type MockStrategy struct {
	mock.Mock
}

// ShouldRefreshText mocks the ShouldRefreshText method.
func (m *MockStrategy) ShouldRefreshText(r resource.Resource) (bool, error) {
	args := m.Called(r)
	return args.Bool(0), args.Error(1)
}

// ShouldRefreshBytes mocks the ShouldRefreshBytes method.
func (m *MockStrategy) ShouldRefreshBytes(r resource.Resource) (bool, error) {
	args := m.Called(r)
	return args.Bool(0), args.Error(1)
}

// OnTextRefreshed mocks the OnTextRefreshed method.
func (m *MockStrategy) OnTextRefreshed(r resource.Resource, text string) error {
	args := m.Called(r, text)
	return args.Error(0)
}

// OnBytesRefreshed mocks the OnBytesRefreshed method.
func (m *MockStrategy) OnBytesRefreshed(r resource.Resource, b []byte) error {
	args := m.Called(r, b)
	return args.Error(0)
}

// ReadCloser is an io.ReadCloser over fixed content whose Close returns
// CloseErr and records that it was called.
type ReadCloser struct {
	io.Reader
	CloseErr error
	Closed   bool
}

// NewReadCloser returns a ReadCloser reading from r.
func NewReadCloser(r io.Reader, closeErr error) *ReadCloser {
	return &ReadCloser{Reader: r, CloseErr: closeErr}
}

// Close marks the reader closed and returns CloseErr.
func (r *ReadCloser) Close() error {
	r.Closed = true
	return r.CloseErr
}
