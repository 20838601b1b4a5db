package config

import (
	"io/fs"
	"os"

	"hop.computer/relist/pkg/loader"
)

// overwriting fileSystem lets us use a mock filesystem for tests
var fileSystem fs.FS = osFS{}

var files = loader.New[*Config](fileSystem)

// useFileSystem replaces fileSystem and drops every cached config.
func useFileSystem(fsys fs.FS) {
	fileSystem = fsys
	files = loader.New[*Config](fsys)
}

type osFS struct{}

// osFS implements fs.FS.
func (o osFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}
