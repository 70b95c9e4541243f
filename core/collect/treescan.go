package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// testFileSuffixes are filename conventions that mark a file as a test,
// across the languages tracked portfolios commonly contain.
var testFileSuffixes = []string{
	"_test.go",
	"_test.py",
	"_spec.rb",
	".test.js",
	".test.ts",
	".test.jsx",
	".test.tsx",
	".spec.js",
	".spec.ts",
	"Test.java",
	"Tests.cs",
}

// testFilePrefixes are basename prefixes that mark a file as a test.
var testFilePrefixes = []string{
	"test_",
}

// testDirSegments are path segments that mark a directory as test code.
var testDirSegments = []string{
	"test",
	"tests",
	"spec",
	"__tests__",
}

// readmeVariants are the README file names probed at the repo root.
var readmeVariants = []string{
	"README.md",
	"README.rst",
	"README.txt",
	"README",
}

// requiredDocPaths is the fixed set of documentation paths every tracked
// repo is expected to carry. The missing subset is reported as a signal.
var requiredDocPaths = []string{
	"README.md",
	"LICENSE",
}

// TreeScanCollector enriches signals with file-tree hygiene checks.
// It owns TestsPresent, TreeTruncated, ReadmePresent, RequiredFilesMissing,
// GitignorePresent, EnvNotTracked, HygieneCollected.
type TreeScanCollector struct {
	api contract.APIClient
	cfg schema.CollectorConfig
}

// NewTreeScanCollector creates the tree/hygiene scan stage.
func NewTreeScanCollector(api contract.APIClient, cfg schema.CollectorConfig) *TreeScanCollector {
	return &TreeScanCollector{api: api, cfg: cfg}
}

// Name identifies the stage.
func (c *TreeScanCollector) Name() string { return "tree_scan" }

// Enabled reports whether the stage should run.
func (c *TreeScanCollector) Enabled() bool { return c.cfg.Enabled }

// Enrich scans the recursive file tree of the default branch for test
// presence and documentation hygiene. When the API reports the tree as
// truncated the scan result is unusable, so tests-presence falls back to
// directory-existence probes, a strictly weaker signal. Hygiene probes fail
// open: an incomplete probe never penalizes the repo.
func (c *TreeScanCollector) Enrich(ctx context.Context, sig *schema.Signals) error {
	owner, name := sig.Repo.Owner, sig.Repo.Name

	branch := sig.DefaultBranch
	if branch == "" {
		// Commits collector disabled; resolve the branch ourselves.
		meta, err := c.api.Repo(ctx, owner, name)
		if err != nil {
			return fmt.Errorf("resolve default branch for %s: %w", sig.Repo.Slug(), err)
		}
		branch = meta.DefaultBranch
		sig.DefaultBranch = branch
	}

	tree, err := c.api.Tree(ctx, owner, name, branch)
	switch {
	case err != nil || tree.Truncated:
		// No usable tree; directory probes only.
		if tree != nil {
			sig.TreeTruncated = tree.Truncated
		}
		sig.TestsPresent = schema.Ptr(c.probeTestDirs(ctx, owner, name))
		c.probeHygiene(ctx, sig, nil)
	default:
		paths := blobPaths(tree)
		sig.TestsPresent = schema.Ptr(scanForTests(paths))
		c.probeHygiene(ctx, sig, paths)
	}

	sig.HygieneCollected = true
	return nil
}

// blobPaths returns the file (non-directory) paths of a tree listing.
func blobPaths(tree *schema.Tree) map[string]struct{} {
	paths := make(map[string]struct{}, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.Type == "blob" {
			paths[entry.Path] = struct{}{}
		}
	}
	return paths
}

// scanForTests reports whether any blob path matches a test-file naming
// convention or lives under a test directory.
func scanForTests(paths map[string]struct{}) bool {
	for path := range paths {
		base := path
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			base = path[idx+1:]
		}
		for _, suffix := range testFileSuffixes {
			if strings.HasSuffix(base, suffix) {
				return true
			}
		}
		for _, prefix := range testFilePrefixes {
			if strings.HasPrefix(base, prefix) {
				return true
			}
		}
		for _, segment := range strings.Split(path, "/") {
			for _, dir := range testDirSegments {
				if strings.EqualFold(segment, dir) && segment != base {
					return true
				}
			}
		}
	}
	return false
}

// probeTestDirs checks for conventional test directories one by one via
// path-existence probes. Probe failures degrade to absent.
func (c *TreeScanCollector) probeTestDirs(ctx context.Context, owner, name string) bool {
	for _, dir := range testDirSegments {
		if exists, err := c.api.PathExists(ctx, owner, name, dir); err == nil && exists {
			return true
		}
	}
	return false
}

// probeHygiene fills in the documentation and secrets hygiene fields.
// When paths is non-nil it answers from the already-fetched tree; otherwise
// it issues individual existence probes. Unexpected probe errors degrade to
// "absent" so an API hiccup reports risk instead of crashing the collector.
func (c *TreeScanCollector) probeHygiene(ctx context.Context, sig *schema.Signals, paths map[string]struct{}) {
	owner, name := sig.Repo.Owner, sig.Repo.Name

	exists := func(path string) bool {
		if paths != nil {
			_, ok := paths[path]
			return ok
		}
		ok, err := c.api.PathExists(ctx, owner, name, path)
		return err == nil && ok
	}

	readme := false
	for _, variant := range readmeVariants {
		if exists(variant) {
			readme = true
			break
		}
	}
	sig.ReadmePresent = schema.Ptr(readme)

	missing := []string{}
	for _, doc := range requiredDocPaths {
		if !exists(doc) {
			missing = append(missing, doc)
		}
	}
	sig.RequiredFilesMissing = missing

	sig.GitignorePresent = schema.Ptr(exists(".gitignore"))

	// A tracked .env is the risk; absence is the safe state, so a failed
	// probe reports the file as not tracked.
	sig.EnvNotTracked = schema.Ptr(!exists(".env"))
}
