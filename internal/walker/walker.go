// Package walker materializes a template tree: every path name and text
// file is rendered against the run's context and written to the output
// filesystem.
package walker

import (
	"container/heap"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/AidanDelaney/cpr/internal/manifest"
	"github.com/AidanDelaney/cpr/internal/render"
)

// Walker walks the input tree in lexicographic order of full source path,
// so "a-c" is written before "a/b". Pending paths sit in a priority queue.
type Walker struct {
	// Overwrite allows replacing files that already exist in the output.
	Overwrite bool
	Logger    *zap.Logger

	conditions map[string]*render.Condition
}

// New returns a Walker applying the given skip-if directives.
func New(entries []manifest.Entry, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Walker{Logger: logger, conditions: map[string]*render.Condition{}}
	for _, e := range entries {
		w.conditions[e.Path] = e.If
	}
	return w
}

// Result lists the output paths written, in write order.
type Result struct {
	Written []string
}

type item struct {
	src  string // slash path relative to the input root
	dst  string // slash path relative to the output root
	info os.FileInfo
}

// Materialize renders in into out. On failure the returned error is an
// *Error carrying every output path written before the failure.
func (w *Walker) Materialize(in, out billy.Filesystem, ctx render.Context) (*Result, error) {
	res := &Result{}
	fail := func(err error) (*Result, error) {
		return res, &Error{Completed: append([]string(nil), res.Written...), Err: err}
	}

	root, err := w.expand(in, out, ctx, item{})
	if err != nil {
		return fail(err)
	}
	pending := queue(root)
	heap.Init(&pending)

	for pending.Len() > 0 {
		it := heap.Pop(&pending).(item)

		switch {
		case it.info.IsDir():
			created, err := w.mkdir(out, it)
			if err != nil {
				return fail(err)
			}
			if created {
				res.Written = append(res.Written, it.dst)
			}
			children, err := w.expand(in, out, ctx, it)
			if err != nil {
				return fail(err)
			}
			for _, child := range children {
				heap.Push(&pending, child)
			}
		case it.info.Mode()&os.ModeSymlink != 0:
			if err := w.symlink(in, out, it); err != nil {
				return fail(err)
			}
			res.Written = append(res.Written, it.dst)
		default:
			if err := w.file(in, out, ctx, it); err != nil {
				return fail(err)
			}
			res.Written = append(res.Written, it.dst)
		}
	}
	return res, nil
}

// expand plans the children of dir. Every child is filtered, named and
// checked for collisions before any of them is written.
func (w *Walker) expand(in, out billy.Filesystem, ctx render.Context, dir item) ([]item, error) {
	infos, err := in.ReadDir(abs(dir.src))
	if err != nil {
		return nil, &IOError{Path: dir.src, Err: err}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	var (
		children []item
		claimed  = map[string]string{}
	)
	for _, info := range infos {
		src := path.Join(dir.src, info.Name())
		if dir.src == "" && manifest.IsReserved(src) {
			continue
		}

		if cond, ok := w.conditions[src]; ok {
			keep, err := cond.Evaluate(ctx)
			if err != nil {
				return nil, render.WithFile(err, src)
			}
			if !keep {
				w.Logger.Debug("skip", zap.String("path", src), zap.Stringer("if", cond))
				continue
			}
		}

		name, err := renderName(info.Name(), src, ctx)
		if err != nil {
			return nil, err
		}
		if name == "" {
			w.Logger.Debug("skip", zap.String("path", src), zap.String("reason", "name rendered empty"))
			continue
		}

		dst := path.Join(dir.dst, name)
		if prev, dup := claimed[name]; dup {
			return nil, &PathCollisionError{Path: dst, Sources: []string{prev, src}}
		}
		claimed[name] = src

		if err := w.checkExisting(out, dst, info); err != nil {
			return nil, err
		}
		children = append(children, item{src: src, dst: dst, info: info})
	}
	return children, nil
}

func renderName(name, src string, ctx render.Context) (string, error) {
	if !render.HasMarkup(name) {
		return name, nil
	}
	rendered, err := render.Render(name, ctx)
	if err != nil {
		return "", render.WithFile(err, src)
	}
	if strings.ContainsAny(rendered, `/\`) || rendered == "." || rendered == ".." {
		return "", &render.SyntaxError{File: src, Line: 1, Column: 1, Msg: "name renders to " + `"` + rendered + `"` + ", which is not a single path element"}
	}
	return rendered, nil
}

// checkExisting refuses to clobber output that was there before the walk.
// Existing directories are merged into.
func (w *Walker) checkExisting(out billy.Filesystem, dst string, info os.FileInfo) error {
	existing, err := out.Lstat(abs(dst))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &IOError{Path: dst, Err: err}
	}
	if existing.IsDir() && info.IsDir() {
		return nil
	}
	if w.Overwrite && !existing.IsDir() && !info.IsDir() {
		return nil
	}
	return &PathCollisionError{Path: dst}
}

func (w *Walker) mkdir(out billy.Filesystem, it item) (bool, error) {
	if _, err := out.Stat(abs(it.dst)); err == nil {
		return false, nil
	}
	if err := out.MkdirAll(abs(it.dst), it.info.Mode().Perm()|0700); err != nil {
		return false, &IOError{Path: it.dst, Err: err}
	}
	w.Logger.Info("create", zap.String("path", it.dst+"/"))
	return true, nil
}

func (w *Walker) symlink(in, out billy.Filesystem, it item) error {
	target, err := in.Readlink(abs(it.src))
	if err != nil {
		return &IOError{Path: it.src, Err: err}
	}
	if w.Overwrite {
		if err := out.Remove(abs(it.dst)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &IOError{Path: it.dst, Err: err}
		}
	}
	if err := out.Symlink(target, abs(it.dst)); err != nil {
		return &IOError{Path: it.dst, Err: err}
	}
	w.Logger.Info("create", zap.String("path", it.dst), zap.String("target", target))
	return nil
}

func (w *Walker) file(in, out billy.Filesystem, ctx render.Context, it item) error {
	data, err := readFile(in, abs(it.src))
	if err != nil {
		return &IOError{Path: it.src, Err: err}
	}

	if isText(data) {
		rendered, err := render.Render(string(data), ctx)
		if err != nil {
			return render.WithFile(err, it.src)
		}
		data = []byte(rendered)
	}

	mode := it.info.Mode().Perm()
	f, err := out.OpenFile(abs(it.dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return &IOError{Path: it.dst, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return &IOError{Path: it.dst, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Path: it.dst, Err: err}
	}
	if ch, ok := out.(billy.Change); ok {
		if err := ch.Chmod(abs(it.dst), mode); err != nil {
			return &IOError{Path: it.dst, Err: err}
		}
	}
	w.Logger.Info("create", zap.String("path", it.dst))
	return nil
}

func readFile(bfs billy.Filesystem, name string) ([]byte, error) {
	file, err := bfs.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// isText reports whether content sniffing places data under text/plain.
// Everything else is copied byte for byte.
func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func abs(p string) string {
	return "/" + p
}

// queue orders pending items by source path. A directory's children are
// pushed only once the directory itself has been created.
type queue []item

func (q queue) Len() int           { return len(q) }
func (q queue) Less(i, j int) bool { return q[i].src < q[j].src }
func (q queue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) {
	*q = append(*q, x.(item))
}

func (q *queue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}
