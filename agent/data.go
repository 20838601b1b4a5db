package agent

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hop.computer/relist/pkg/list"
	"hop.computer/relist/pkg/list/offset"
	"hop.computer/relist/pkg/region"
)

// ErrNoImage is returned for names that are not served.
var ErrNoImage = errors.New("agent: no such image")

// Data is the data access object for all of the Agent. Images are held in
// memory; pushes through the API do not reach the files they were loaded
// from.
type Data struct {
	mu     sync.Mutex
	Images map[string]*region.Region
}

// Init loads every *.img file directly inside dir. Files that do not hold a
// valid list image are skipped.
func (d *Data) Init(dir string) error {
	d.Images = make(map[string]*region.Region)
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, _ error) error {
		if path == dir {
			return nil
		}
		if entry != nil && entry.IsDir() {
			return filepath.SkipDir
		}
		if strings.ToLower(filepath.Ext(path)) != ".img" {
			logrus.Debugf("skipping path %s, not a .img file", path)
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			logrus.Errorf("%s: %s", path, err)
			return nil
		}
		r, err := region.Open(b)
		if err == nil {
			err = d.Add(filepath.Base(path), r)
		}
		if err != nil {
			logrus.Errorf("%s: %s", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logrus.Infof("loaded %d images", len(d.Images))
	return nil
}

// Add serves r under name. r must hold an int64 list at its root.
func (d *Data) Add(name string, r *region.Region) error {
	if _, err := offset.Attach[int64](r, r.Root()); err != nil {
		return errors.WithMessagef(err, "image %s", name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Images == nil {
		d.Images = make(map[string]*region.Region)
	}
	d.Images[name] = r
	return nil
}

// with runs f on the list of the named image while holding the lock.
func (d *Data) with(name string, f func(r *region.Region, l *list.List[int64, region.Addr]) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.Images[name]
	if !ok {
		return errors.Wrapf(ErrNoImage, "%q", name)
	}
	l, err := offset.Attach[int64](r, r.Root())
	if err != nil {
		return err
	}
	return f(r, l)
}
