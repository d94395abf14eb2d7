package assets

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima/engine/core"
)

// ShaderWatcher reports changes to a set of shader files. It watches their
// directories rather than the files, so editors replacing a file through a
// rename are seen too.
type ShaderWatcher struct {
	paths    map[string]string
	onChange func(path string)

	mutex    sync.Mutex
	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

// NewShaderWatcher watches paths and calls onChange, from the watcher
// goroutine, with the path as given whenever one of them is written or created.
func NewShaderWatcher(onChange func(path string), paths ...string) (*ShaderWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	sw := &ShaderWatcher{
		paths:    make(map[string]string, len(paths)),
		onChange: onChange,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		fsnotify: fsWatch,
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsWatch.Close()
			return nil, err
		}
		sw.paths[abs] = p
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsWatch.Add(dir); err != nil {
			fsWatch.Close()
			return nil, err
		}
		core.LogDebug("watching shader directory `%s`", dir)
	}

	go sw.start()
	return sw, nil
}

func (sw *ShaderWatcher) Close() error {
	sw.mutex.Lock()
	if sw.isClosed {
		sw.mutex.Unlock()
		return errors.New("shader watcher already closed")
	}
	sw.isClosed = true
	sw.mutex.Unlock()

	close(sw.done)
	<-sw.stopped
	return nil
}

func (sw *ShaderWatcher) start() {
	defer close(sw.stopped)
	for {
		select {

		case e, ok := <-sw.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			abs, err := filepath.Abs(e.Name)
			if err != nil {
				continue
			}
			if p, watched := sw.paths[abs]; watched {
				core.LogInfo("shader `%s` changed", p)
				sw.onChange(p)
			}

		case err, ok := <-sw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-sw.done:
			sw.fsnotify.Close()
			return
		}
	}
}
