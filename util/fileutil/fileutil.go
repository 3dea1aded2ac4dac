package fileutil

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"github.com/APTrust/livepremis/constants"
	"hash"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// LivePremisHome returns the absolute path to the livepremis root
// directory, which contains source, config and test files. You can
// set this explicitly by defining an environment variable called
// LIVEPREMIS_HOME. Otherwise, this function will try to infer the value
// by appending to the environment variable GOPATH. If neither of
// those variables is set, this returns an error.
func LivePremisHome() (home string, err error) {
	home = os.Getenv("LIVEPREMIS_HOME")
	if home == "" {
		goHome := os.Getenv("GOPATH")
		if goHome != "" {
			home = filepath.Join(goHome, "src", "github.com", "APTrust", "livepremis")
		} else {
			err = fmt.Errorf("Cannot determine livepremis home because neither " +
				"LIVEPREMIS_HOME nor GOPATH is set in environment.")
		}
	}
	if home != "" {
		home, err = filepath.Abs(home)
	}
	return home, err
}

// LoadRelativeFile reads the file at the specified path
// relative to LIVEPREMIS_HOME and returns the contents as a byte array.
func LoadRelativeFile(relativePath string) ([]byte, error) {
	absPath, err := RelativeToAbsPath(relativePath)
	if err != nil {
		return nil, err
	}
	return ioutil.ReadFile(absPath)
}

// Converts a relative path to an absolute path. Paths that exist
// relative to the current working directory resolve there. Anything
// else resolves within the livepremis directory tree.
func RelativeToAbsPath(relativePath string) (string, error) {
	absPath, _ := filepath.Abs(relativePath)
	if absPath == relativePath {
		return relativePath, nil // it already is absolute
	}
	if FileExists(absPath) {
		return absPath, nil
	}
	home, err := LivePremisHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, relativePath), nil
}

// Returns true if the file at path exists, false if not.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	if err != nil && os.IsNotExist(err) {
		return false
	}
	return true
}

// Expands the tilde in a directory path to the current
// user's home directory. For example, on Linux, ~/data
// would expand to something like /home/josie/data
func ExpandTilde(filePath string) (string, error) {
	if strings.Index(filePath, "~") < 0 {
		return filePath, nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	homeDir := usr.HomeDir + "/"
	expandedDir := strings.Replace(filePath, "~/", homeDir, 1)
	return expandedDir, nil
}

// NewHash returns a hash for one of constants.ChecksumAlgorithms.
// Algorithm names are matched as PREMIS records spell them, so
// "md5" works and "MD5" does not.
func NewHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case constants.AlgMd5:
		return md5.New(), nil
	case constants.AlgSha1:
		return sha1.New(), nil
	case constants.AlgSha256:
		return sha256.New(), nil
	case constants.AlgSha512:
		return sha512.New(), nil
	}
	return nil, fmt.Errorf("Unsupported algorithm: %s", algorithm)
}
