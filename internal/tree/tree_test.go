package tree

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/aiedail92/DBBranchManager/internal/logx"
	"github.com/aiedail92/DBBranchManager/internal/statehash"
	"github.com/aiedail92/DBBranchManager/internal/transform"
)

// fakeTransform mixes a fixed token into the hash; it stands in for a real
// CopyTransform/SqlTransform in these tree-shape tests.
type fakeTransform struct {
	token string
	ran   *[]string
}

func (f *fakeTransform) CalculateTransform(in statehash.StateHash) (statehash.StateHash, error) {
	return statehash.Mix(in, []byte(f.token)), nil
}

func (f *fakeTransform) GetRequirements(sink *transform.RequirementSink) {
	sink.Check("fake:"+f.token, true)
}

func (f *fakeTransform) RunTransform(in statehash.StateHash, dryRun bool, log *logx.Logger) (statehash.StateHash, error) {
	if f.ran != nil {
		*f.ran = append(*f.ran, f.token)
	}
	return f.CalculateTransform(in)
}

func fakeLeaf(token string, ran *[]string) *Node {
	return Leaf(&fakeTransform{token: token, ran: ran})
}

type fakeCache struct {
	hits map[string]map[statehash.StateHash]string // db -> hash -> path
	adds []string
}

func (c *fakeCache) TryGet(dbName string, hash statehash.StateHash, updateHit bool) (string, bool) {
	byHash, ok := c.hits[dbName]
	if !ok {
		return "", false
	}
	p, ok := byHash[hash]
	return p, ok
}

func (c *fakeCache) Add(connection, dbName string, hash statehash.StateHash) error {
	c.adds = append(c.adds, dbName+"@"+hash.String())
	return nil
}

func TestCalculateThreadsHashThroughGroup(t *testing.T) {
	root := Group("root",
		fakeLeaf("a", nil),
		Group("g1", fakeLeaf("b", nil), fakeLeaf("c", nil)),
	)

	res, err := Calculate(root, statehash.Empty, &CalculateContext{})
	require.NoError(t, err)
	require.False(t, res.Changed)

	expected := statehash.Mix(statehash.Mix(statehash.Mix(statehash.Empty, []byte("a")), []byte("b")), []byte("c"))
	require.Equal(t, expected, res.HashOut)
	require.NotNil(t, res.Node)
	require.Len(t, res.Node.Children, 2)
}

func TestCalculateResumeJumpDropsPriorSiblings(t *testing.T) {
	root := Group("root", fakeLeaf("a", nil), fakeLeaf("b", nil), fakeLeaf("c", nil))

	startingHash := statehash.Mix(statehash.Mix(statehash.Empty, []byte("a")), []byte("b"))

	res, err := Calculate(root, statehash.Empty, &CalculateContext{StartingHash: &startingHash})
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.NotNil(t, res.Node)
	// "a" and "b" are dropped; only "c" (and its downstream effect) survives.
	require.Len(t, res.Node.Children, 1)
}

// TestCalculateResumeJumpProducesExpectedTreeShape diffs the rewritten
// tree's shape (labels and nesting) against a hand-built expectation,
// ignoring the Transform field (a fakeTransform with unexported fields that
// go-cmp can't compare directly) via cmpopts.IgnoreFields.
func TestCalculateResumeJumpProducesExpectedTreeShape(t *testing.T) {
	root := Group("root", fakeLeaf("a", nil), fakeLeaf("b", nil), fakeLeaf("c", nil))

	startingHash := statehash.Mix(statehash.Mix(statehash.Empty, []byte("a")), []byte("b"))

	res, err := Calculate(root, statehash.Empty, &CalculateContext{StartingHash: &startingHash})
	require.NoError(t, err)

	want := &Node{Label: "root", Children: []*Node{{}}}
	opts := cmpopts.IgnoreFields(Node{}, "Transform")
	if diff := cmp.Diff(want, res.Node, opts); diff != "" {
		t.Fatalf("rewritten tree shape mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateCacheSubstitution(t *testing.T) {
	root := Group("root", fakeLeaf("a", nil), fakeLeaf("b", nil))

	hashAfterA := statehash.Mix(statehash.Empty, []byte("a"))
	cache := &fakeCache{hits: map[string]map[statehash.StateHash]string{
		"db1": {hashAfterA: "/caches/db1/" + hashAfterA.String()},
	}}

	res, err := Calculate(root, statehash.Empty, &CalculateContext{
		Cache:     cache,
		Databases: []string{"db1"},
	})
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.NotNil(t, res.CacheHash)
	require.Equal(t, hashAfterA, *res.CacheHash)

	// The rewritten tree drops "a", replacing it with the cache-restore
	// group; "b" (no cache hit) survives after it and still runs.
	require.Len(t, res.Node.Children, 2)
	require.Contains(t, res.Node.Children[0].Label, "cache")
}

func TestCalculateEmptyGroupElided(t *testing.T) {
	root := Group("root", Group("empty"))
	res, err := Calculate(root, statehash.Empty, &CalculateContext{})
	require.NoError(t, err)
	require.Nil(t, res.Node)
}

func TestRunExecutesLeavesInPreOrderAndThreadsHash(t *testing.T) {
	var ran []string
	root := Group("root", fakeLeaf("a", &ran), Group("g", fakeLeaf("b", &ran), fakeLeaf("c", &ran)))

	log, err := logx.New(false)
	require.NoError(t, err)

	out, err := Run(root, statehash.Empty, &RunContext{Log: log}, true, true)
	require.NoError(t, err)

	expected := statehash.Mix(statehash.Mix(statehash.Mix(statehash.Empty, []byte("a")), []byte("b")), []byte("c"))
	require.Equal(t, expected, out)
	require.Equal(t, []string{"a", "b", "c"}, ran)
}

func TestRunCachesOnlyInteriorLeavesPastMinDeployTime(t *testing.T) {
	slow := &slowTransform{fakeTransform: fakeTransform{token: "slow"}, delay: 5 * time.Millisecond}
	root := Group("root", fakeLeaf("first", nil), Leaf(slow), fakeLeaf("last", nil))

	log, err := logx.New(false)
	require.NoError(t, err)
	cache := &fakeCache{hits: map[string]map[statehash.StateHash]string{}}

	_, err = Run(root, statehash.Empty, &RunContext{
		Log:           log,
		Cache:         cache,
		Databases:     []string{"db1", "db2"},
		MinDeployTime: time.Millisecond,
	}, true, true)
	require.NoError(t, err)

	require.Len(t, cache.adds, 2)
	require.Contains(t, cache.adds[0], "db1@")
	require.Contains(t, cache.adds[1], "db2@")
}

type slowTransform struct {
	fakeTransform
	delay time.Duration
}

func (s *slowTransform) RunTransform(in statehash.StateHash, dryRun bool, log *logx.Logger) (statehash.StateHash, error) {
	time.Sleep(s.delay)
	return s.CalculateTransform(in)
}

func TestRunSkipsCacheAddAtFirstAndLastLeaf(t *testing.T) {
	slow := &slowTransform{fakeTransform: fakeTransform{token: "only"}, delay: 2 * time.Millisecond}
	root := Leaf(slow)

	log, err := logx.New(false)
	require.NoError(t, err)
	cache := &fakeCache{}

	_, err = Run(root, statehash.Empty, &RunContext{
		Log:           log,
		Cache:         cache,
		Databases:     []string{"db1"},
		MinDeployTime: time.Microsecond,
	}, true, true)
	require.NoError(t, err)
	require.Empty(t, cache.adds)
}

func TestCheckRequirementsCollectsEveryLeaf(t *testing.T) {
	root := Group("root", fakeLeaf("a", nil), Group("g", fakeLeaf("b", nil)))
	sink := transform.NewRequirementSink()
	CheckRequirements(root, sink)
	require.False(t, sink.Finish())
}
