package transform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/aiedail92/DBBranchManager/internal/logx"
	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

// CopyTransform implements the `copy` task kind (spec §4.3): copies every
// file under From whose base name matches Regex to To, preserving relative
// paths.
type CopyTransform struct {
	From  string
	To    string
	Regex *regexp.Regexp
}

// matchedFiles enumerates files under c.From whose base name matches
// c.Regex, sorted by relative path using '/' separators, case-sensitive
// (spec §4.3/§9: deterministic enumeration is the cache-correctness
// substrate, directory order is not).
func (c *CopyTransform) matchedFiles() ([]string, error) {
	var rels []string
	err := filepath.WalkDir(c.From, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == c.From {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !c.Regex.MatchString(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(c.From, path)
		if err != nil {
			return err
		}
		rels = append(rels, statehash.NormalizeRelPath(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(rels)
	return rels, nil
}

func (c *CopyTransform) CalculateTransform(in statehash.StateHash) (statehash.StateHash, error) {
	rels, err := c.matchedFiles()
	if err != nil {
		return statehash.StateHash{}, fmt.Errorf("copy: enumerating %s: %w", c.From, err)
	}

	tr := statehash.NewTransformer(in)
	for _, rel := range rels {
		src := filepath.Join(c.From, filepath.FromSlash(rel))
		if err := tr.TransformFileSmart(rel, src); err != nil {
			return statehash.StateHash{}, fmt.Errorf("copy: hashing %s: %w", src, err)
		}
	}
	return tr.Finish()
}

func (c *CopyTransform) GetRequirements(sink *RequirementSink) {
	_, err := os.Stat(c.From)
	sink.Check(fmt.Sprintf("source directory %q exists", c.From), err == nil)
}

func (c *CopyTransform) RunTransform(in statehash.StateHash, dryRun bool, log *logx.Logger) (statehash.StateHash, error) {
	out, err := c.CalculateTransform(in)
	if err != nil {
		return statehash.StateHash{}, err
	}

	rels, err := c.matchedFiles()
	if err != nil {
		return statehash.StateHash{}, err
	}

	if dryRun {
		log.Log(fmt.Sprintf("copy: would copy %d file(s) from %s to %s", len(rels), c.From, c.To))
		return out, nil
	}

	if err := os.MkdirAll(c.To, 0o755); err != nil {
		return statehash.StateHash{}, fmt.Errorf("copy: creating %s: %w", c.To, err)
	}

	for _, rel := range rels {
		src := filepath.Join(c.From, filepath.FromSlash(rel))
		dst := filepath.Join(c.To, filepath.FromSlash(rel))

		if err := copyOneFile(src, dst); err != nil {
			return statehash.StateHash{}, fmt.Errorf("copy: %s -> %s: %w", src, dst, err)
		}
	}
	log.Log(fmt.Sprintf("copy: copied %d file(s) from %s to %s", len(rels), c.From, c.To))
	return out, nil
}

// copyOneFile copies src to dst, skipping the copy when dst already exists
// with the same modification time as src (spec §4.3), and clearing any
// read-only bit on dst before overwriting.
func copyOneFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if dstInfo, err := os.Stat(dst); err == nil {
		if dstInfo.ModTime().Equal(srcInfo.ModTime()) {
			return nil
		}
		// Clear read-only before overwrite.
		if err := os.Chmod(dst, 0o644); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}
