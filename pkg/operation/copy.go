// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/npmbuild/pkg/fault"
	"github.com/walteh/npmbuild/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus represents what a copy did to a file in the target
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusNew                  // File didn't exist in the target
	StatusModified             // File existed with different content or type
	StatusUnchanged            // File existed with the same content
	StatusRemoved              // File no longer exists in the source
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	case StatusRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// 📦 NewCopyAllOperation creates an operation copying the whole project
func NewCopyAllOperation(opts Options) Operation {
	return &copyAllOperation{
		BaseOperation: NewBaseOperation(opts),
	}
}

// 📦 copyAllOperation copies every non-excluded project entry
type copyAllOperation struct {
	BaseOperation
}

func (op *copyAllOperation) Kind() Kind { return KindCopyAll }

func (op *copyAllOperation) Describe() string {
	return Step{Kind: KindCopyAll}.Describe(op.Tool, op.Release)
}

// 🏃 Execute runs the copy
func (op *copyAllOperation) Execute(ctx context.Context) error {
	c, err := op.newCopier(ctx)
	if err != nil || c == nil {
		return err
	}

	entries, err := os.ReadDir(op.ProjectDir)
	if err != nil {
		return fault.Filesystem("reading project directory", op.ProjectDir, err)
	}

	if err := os.MkdirAll(op.TargetDir, 0755); err != nil {
		return fault.Filesystem("creating target directory", op.TargetDir, err)
	}

	for _, entry := range entries {
		rel := entry.Name()
		if c.isTarget(rel) || c.excluded(rel) {
			continue
		}
		if err := c.copyItem(rel); err != nil {
			return err
		}
	}

	return nil
}

// 📄 NewCopyFileOperation creates an operation copying one project entry
func NewCopyFileOperation(opts Options, path string) Operation {
	return &copyFileOperation{
		BaseOperation: NewBaseOperation(opts),
		path:          path,
	}
}

// 📄 copyFileOperation copies exactly one named entry
type copyFileOperation struct {
	BaseOperation
	path string
}

func (op *copyFileOperation) Kind() Kind { return KindCopyFile }

func (op *copyFileOperation) Describe() string {
	return Step{Kind: KindCopyFile, Path: op.path}.Describe(op.Tool, op.Release)
}

// 🏃 Execute runs the copy
func (op *copyFileOperation) Execute(ctx context.Context) error {
	rel, err := ValidateRelative(op.path)
	if err != nil {
		return fault.Filesystem("validating", op.path, err)
	}

	c, err := op.newCopier(ctx)
	if err != nil || c == nil {
		return err
	}

	src := filepath.Join(op.ProjectDir, filepath.FromSlash(rel))
	if _, err := os.Lstat(src); err != nil {
		return fault.Filesystem("reading", src, err)
	}

	if err := os.MkdirAll(op.TargetDir, 0755); err != nil {
		return fault.Filesystem("creating target directory", op.TargetDir, err)
	}

	return c.copyItem(rel)
}

// 🔒 ValidateRelative checks that path names an entry inside the project
// and returns it in slash form.
func ValidateRelative(path string) (string, error) {
	if path == "" {
		return "", errors.New("path is empty")
	}
	if filepath.IsAbs(path) {
		return "", errors.New("path must be relative to the project directory")
	}
	clean := filepath.Clean(path)
	if clean == "." || !filepath.IsLocal(clean) {
		return "", errors.New("path must name an entry inside the project directory")
	}
	return filepath.ToSlash(clean), nil
}

// 📂 copier mirrors project entries into the target directory
type copier struct {
	logger     *log.Logger
	ctx        context.Context
	projectDir string
	targetDir  string
	excludes   []string
	targetRel  string          // target relative to project when nested, else ""
	written    map[string]bool // target entries produced by this copy
}

// newCopier returns nil when source and target are the same directory, in
// which case there is nothing to copy. A target that contains the project is
// an error: the copy would land on, and prune, the sources themselves.
func (op *BaseOperation) newCopier(ctx context.Context) (*copier, error) {
	logger := op.logger(ctx)

	if filepath.Clean(op.ProjectDir) == filepath.Clean(op.TargetDir) {
		logger.Zerolog().Debug().Str("dir", op.ProjectDir).Msg("project and target directory are the same, skipping copy")
		return nil, nil
	}

	if rel, err := filepath.Rel(op.TargetDir, op.ProjectDir); err == nil && filepath.IsLocal(rel) {
		return nil, fault.Filesystem("copying into", op.TargetDir,
			errors.Errorf("target directory contains the project directory %s", op.ProjectDir))
	}

	c := &copier{
		logger:     logger,
		ctx:        ctx,
		projectDir: op.ProjectDir,
		targetDir:  op.TargetDir,
		excludes:   op.Excludes,
		written:    map[string]bool{},
	}

	if rel, err := filepath.Rel(op.ProjectDir, op.TargetDir); err == nil && filepath.IsLocal(rel) {
		c.targetRel = filepath.ToSlash(rel)
	}

	return c, nil
}

func (c *copier) isTarget(rel string) bool {
	return c.targetRel != "" && rel == c.targetRel
}

// 🔍 excluded checks if a project path matches an exclusion pattern
func (c *copier) excluded(rel string) bool {
	for _, pattern := range c.excludes {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			c.logger.Zerolog().Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			c.logger.Zerolog().Debug().Str("file", rel).Str("pattern", pattern).Msg("file excluded by pattern")
			return true
		}
	}
	return false
}

// copyItem mirrors the entry at rel, then removes whatever the target still
// holds below it that the source no longer has. The entry itself is copied
// even when it matches an exclusion; exclusions apply below it.
func (c *copier) copyItem(rel string) error {
	src := filepath.Join(c.projectDir, filepath.FromSlash(rel))

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fault.Filesystem("reading", path, err)
		}

		r, err := filepath.Rel(c.projectDir, path)
		if err != nil {
			return fault.Filesystem("resolving", path, err)
		}
		r = filepath.ToSlash(r)

		if c.isTarget(r) || (r != rel && c.excluded(r)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dst := filepath.Join(c.targetDir, filepath.FromSlash(r))
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return c.copySymlink(path, dst, r)
		case d.IsDir():
			return c.copyDir(dst, r)
		case d.Type().IsRegular():
			return c.copyFile(path, dst, r)
		default:
			c.logger.Zerolog().Debug().Str("file", r).Str("type", d.Type().String()).Msg("skipping special file")
			return nil
		}
	})
	if err != nil {
		return err
	}

	return c.prune(rel)
}

func (c *copier) copyDir(dst, rel string) error {
	if fi, err := os.Lstat(dst); err == nil && !fi.IsDir() {
		if err := os.RemoveAll(dst); err != nil {
			return fault.Filesystem("replacing", dst, err)
		}
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fault.Filesystem("creating directory", dst, err)
	}
	c.written[rel] = true
	return nil
}

func (c *copier) copyFile(src, dst, rel string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fault.Filesystem("reading", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fault.Filesystem("creating directory", filepath.Dir(dst), err)
	}

	status := StatusNew
	existing, err := os.Lstat(dst)
	switch {
	case err == nil && existing.Mode().IsRegular():
		same, err := sameContent(src, dst, info.Size(), existing.Size())
		if err != nil {
			return fault.Filesystem("comparing", dst, err)
		}
		status = StatusModified
		if same {
			status = StatusUnchanged
		}
	case err == nil:
		if err := os.RemoveAll(dst); err != nil {
			return fault.Filesystem("replacing", dst, err)
		}
		status = StatusModified
	case !os.IsNotExist(err):
		return fault.Filesystem("inspecting", dst, err)
	}

	if status == StatusUnchanged {
		if existing.Mode().Perm() != info.Mode().Perm() {
			if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
				return fault.Filesystem("setting permissions", dst, err)
			}
		}
	} else if err := writeFileAtomic(src, dst, info.Mode().Perm()); err != nil {
		return fault.Filesystem("copying", rel, err)
	}

	c.written[rel] = true
	c.report(rel, status, info.Size(), false)
	return nil
}

func (c *copier) copySymlink(src, dst, rel string) error {
	link, err := os.Readlink(src)
	if err != nil {
		return fault.Filesystem("reading link", src, err)
	}

	status := StatusNew
	if existing, err := os.Lstat(dst); err == nil {
		if existing.Mode()&fs.ModeSymlink != 0 {
			if current, err := os.Readlink(dst); err == nil && current == link {
				c.written[rel] = true
				c.report(rel, StatusUnchanged, 0, true)
				return nil
			}
		}
		if err := os.RemoveAll(dst); err != nil {
			return fault.Filesystem("replacing", dst, err)
		}
		status = StatusModified
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fault.Filesystem("creating directory", filepath.Dir(dst), err)
	}
	if err := os.Symlink(link, dst); err != nil {
		return fault.Filesystem("creating link", dst, err)
	}

	c.written[rel] = true
	c.report(rel, status, 0, true)
	return nil
}

// 🧹 prune removes target entries below rel that this copy did not produce.
// Excluded entries, such as an installed node_modules, are kept.
func (c *copier) prune(rel string) error {
	root := filepath.Join(c.targetDir, filepath.FromSlash(rel))
	if fi, err := os.Lstat(root); err != nil || !fi.IsDir() {
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fault.Filesystem("reading", path, err)
		}

		r, err := filepath.Rel(c.targetDir, path)
		if err != nil {
			return fault.Filesystem("resolving", path, err)
		}
		r = filepath.ToSlash(r)

		if r == rel {
			return nil
		}
		if c.excluded(r) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if c.written[r] {
			return nil
		}

		if err := os.RemoveAll(path); err != nil {
			return fault.Filesystem("removing", path, err)
		}
		c.report(r, StatusRemoved, 0, d.Type()&fs.ModeSymlink != 0)
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
}

func (c *copier) report(rel string, status FileStatus, size int64, symlink bool) {
	if status == StatusUnchanged {
		c.logger.Zerolog().Debug().Str("file", rel).Msg("unchanged")
		return
	}
	c.logger.LogFileOperation(c.ctx, log.FileOperation{
		Path:       rel,
		Status:     status.String(),
		Size:       size,
		IsNew:      status == StatusNew,
		IsModified: status == StatusModified,
		IsRemoved:  status == StatusRemoved,
		IsSymlink:  symlink,
	})
}

// 🔍 sameContent compares two files by size and SHA-256
func sameContent(a, b string, sizeA, sizeB int64) (bool, error) {
	if sizeA != sizeB {
		return false, nil
	}
	sumA, err := checksum(a)
	if err != nil {
		return false, err
	}
	sumB, err := checksum(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(sumA, sumB), nil
}

func checksum(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// 💾 writeFileAtomic copies src to a temporary file next to dst and renames
// it into place.
func writeFileAtomic(src, dst string, perm fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".npmbuild-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
