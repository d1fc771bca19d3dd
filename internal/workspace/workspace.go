// Package workspace manages the per-execution scratch directory an
// infrastructure or environment task renders its terraform/helm inputs
// into, using github.com/spf13/afero the way the teacher's go.mod already
// carries it (the teacher's CLI layers config discovery on top of afero's
// filesystem abstraction; here it backs the task-scoped materialisation
// tree instead so tests can swap in an in-memory filesystem).
package workspace

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/qovery-clone/cluster-engine/internal/types"
)

// Workspace is the root scratch directory for one infrastructure or
// environment task, holding the rendered terraform tree, the resolved
// helm chart/values trees and any helm-diffs output.
type Workspace struct {
	FS   afero.Fs
	Root string
}

// New creates a Workspace rooted at <base>/<cluster short id>, using the
// real OS filesystem.
func New(base string, id types.ClusterID) (*Workspace, error) {
	return NewWithFS(afero.NewOsFs(), base, id)
}

// NewWithFS is New with an injectable afero.Fs, used by tests to avoid
// touching the real filesystem (afero.NewMemMapFs()).
func NewWithFS(fs afero.Fs, base string, id types.ClusterID) (*Workspace, error) {
	root := filepath.Join(base, id.Short)
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root %q: %w", root, err)
	}
	return &Workspace{FS: fs, Root: root}, nil
}

// TerraformDir is the directory the terraform runner's Dir field points at.
func (w *Workspace) TerraformDir() string {
	return filepath.Join(w.Root, "terraform")
}

// ChartsDir is the root the resolved chart bodies materialise under.
func (w *Workspace) ChartsDir() string {
	return filepath.Join(w.Root, "charts")
}

// HelmDiffsDir is where per-chart dry-run diffs are written, matching the
// "helm-diffs/<chart>.diff" path named in spec §4.3.
func (w *Workspace) HelmDiffsDir() string {
	return filepath.Join(w.Root, "helm-diffs")
}

// MaterialiseBootstrap copies cloudSrc (the templated per-cloud directory
// lib/<cloud>/bootstrap/) and commonSrc (the shared lib/common/bootstrap/
// material) from srcFS into this workspace's ChartsDir, under "cloud" and
// "common" respectively, per spec §4.3 step 1. Each chart's descriptor
// later resolves its own chart/values path against whichever of these two
// resolved roots it belongs to (chart.Descriptor.ChartPath/ValuesPath), so
// no further merge step is needed once both trees have landed.
func (w *Workspace) MaterialiseBootstrap(srcFS afero.Fs, cloudSrc, commonSrc string) (cloudDst, commonDst string, err error) {
	cloudDst = filepath.Join(w.ChartsDir(), "cloud")
	if err := w.copyTree(srcFS, cloudSrc, cloudDst); err != nil {
		return "", "", fmt.Errorf("failed to materialise cloud bootstrap tree from %q: %w", cloudSrc, err)
	}
	commonDst = filepath.Join(w.ChartsDir(), "common")
	if err := w.copyTree(srcFS, commonSrc, commonDst); err != nil {
		return "", "", fmt.Errorf("failed to materialise common bootstrap tree from %q: %w", commonSrc, err)
	}
	return cloudDst, commonDst, nil
}

// copyTree recursively copies every file under srcRoot (on srcFS) to the
// same relative layout under dstRoot on the workspace's own filesystem.
func (w *Workspace) copyTree(srcFS afero.Fs, srcRoot, dstRoot string) error {
	return afero.Walk(srcFS, srcRoot, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstRoot, rel)
		if info.IsDir() {
			return w.FS.MkdirAll(dst, 0o755)
		}
		body, err := afero.ReadFile(srcFS, path)
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", path, err)
		}
		if err := w.FS.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return afero.WriteFile(w.FS, dst, body, info.Mode())
	})
}

// WriteFile writes body to a path relative to the workspace root, creating
// parent directories as needed.
func (w *Workspace) WriteFile(relPath string, body []byte) error {
	full := filepath.Join(w.Root, relPath)
	if err := w.FS.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", relPath, err)
	}
	if err := afero.WriteFile(w.FS, full, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", relPath, err)
	}
	return nil
}

// WriteHelmDiff persists one chart's rendered dry-run manifest under
// HelmDiffsDir, named "<chart>.diff".
func (w *Workspace) WriteHelmDiff(chartName, diff string) (string, error) {
	rel := filepath.Join("helm-diffs", chartName+".diff")
	if err := w.WriteFile(rel, []byte(diff)); err != nil {
		return "", err
	}
	return filepath.Join(w.Root, rel), nil
}

// Cleanup removes the entire workspace tree.
func (w *Workspace) Cleanup() error {
	return w.FS.RemoveAll(w.Root)
}

// deployFromFileKindEnv gates whether a task's archive is uploaded as a
// tar.gz to object storage after completion; the upload is opt-in.
const deployFromFileKindEnv = "DEPLOY_FROM_FILE_KIND"

// ShouldArchiveWorkspace reports whether DEPLOY_FROM_FILE_KIND is set,
// gating the optional post-task archive upload.
func ShouldArchiveWorkspace() bool {
	return os.Getenv(deployFromFileKindEnv) != ""
}

// ArchiveToTarGz walks the workspace tree and writes a gzip-compressed tar
// archive to destPath, used to snapshot a task's rendered inputs for
// later replay/debugging when ShouldArchiveWorkspace is true.
func (w *Workspace) ArchiveToTarGz(destPath string) error {
	out, err := w.FS.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create archive %q: %w", destPath, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	return afero.Walk(w.FS, w.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.Root, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := w.FS.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}
