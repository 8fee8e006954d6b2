package filesys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
)

type FilesysTestSuite struct {
	suite.Suite
	fs afero.Fs
}

func (s *FilesysTestSuite) SetupTest() {
	s.fs = Memory()
}

func (s *FilesysTestSuite) TestAtomicWrite() {
	testCases := []struct {
		name     string
		existing []byte
		data     []byte
		perm     os.FileMode
	}{
		{name: "new file in new dir", data: []byte("a: 1\n"), perm: 0o644},
		{name: "replaces existing", existing: []byte("old"), data: []byte("new"), perm: 0o600},
		{name: "empty content", data: []byte{}, perm: 0o644},
	}

	for i, tc := range testCases {
		s.Run(tc.name, func() {
			// Given
			dst := filepath.Join("/cfg", tc.name, "config.yaml")
			if tc.existing != nil {
				s.Require().NoError(afero.WriteFile(s.fs, dst, tc.existing, 0o644))
			}

			// When
			err := AtomicWrite(s.fs, dst, tc.data, tc.perm)

			// Then
			s.Require().NoError(err, "case %d", i)
			got, err := afero.ReadFile(s.fs, dst)
			s.Require().NoError(err)
			s.Equal(tc.data, got)

			info, err := s.fs.Stat(dst)
			s.Require().NoError(err)
			s.Equal(tc.perm, info.Mode().Perm())

			entries, err := afero.ReadDir(s.fs, filepath.Dir(dst))
			s.Require().NoError(err)
			s.Len(entries, 1, "temp files must not be left behind")
		})
	}
}

func (s *FilesysTestSuite) TestAtomicWriteReadOnly() {
	ro := afero.NewReadOnlyFs(s.fs)

	err := AtomicWrite(ro, "/cfg/config.yaml", []byte("x"), 0o644)

	s.Error(err)
	exists, _ := afero.Exists(s.fs, "/cfg/config.yaml")
	s.False(exists)
}

func (s *FilesysTestSuite) TestExpand() {
	home, err := os.UserHomeDir()
	s.Require().NoError(err)

	s.Equal(filepath.Join(home, ".confkit"), Expand("~/.confkit"))
	s.Equal(home, Expand("~"))
	s.Equal("/etc/app.json", Expand("/etc//app.json"))
	s.Equal("~user/x", Expand("~user/x"))
}

func TestFilesysSuite(t *testing.T) {
	suite.Run(t, new(FilesysTestSuite))
}
