package plumbing

import (
	"fmt"
	"slices"
	"testing"

	"github.com/brickster241/gemerge/utils/types"
)

// fuzzIndex turns bytes into a well formed index: low bits pick one of six paths, the next two
// bits pick the stage. A path that gets stage 0 keeps only that entry.
func fuzzIndex(data []byte) *types.Index {
	stages := map[string]map[int]bool{}
	for _, b := range data {
		path := fmt.Sprintf("p%d", b%6)
		stage := int(b>>3) % 4
		if stages[path] == nil {
			stages[path] = map[int]bool{}
		}
		stages[path][stage] = true
	}

	index := &types.Index{Version: 2}
	for path, set := range stages {
		if set[0] {
			index.Entries = append(index.Entries, stagedEntry(path, 0, 0))
			continue
		}
		for s := range set {
			index.Entries = append(index.Entries, stagedEntry(path, s, byte(s)))
		}
	}
	SortIndex(index)
	return index
}

func FuzzMergeAllIndex(f *testing.F) {
	f.Add([]byte{0, 1, 2}, byte(0))
	f.Add([]byte{8, 16, 24, 9, 17}, byte(3))
	f.Add([]byte{1, 9, 17, 25, 2, 10}, byte(0xff))

	f.Fuzz(func(t *testing.T, data []byte, failMask byte) {
		index := fuzzIndex(data)

		var conflicted []string
		unresolved := 0
		for _, e := range index.Entries {
			if e.Stage() == 0 {
				continue
			}
			unresolved++
			if !slices.Contains(conflicted, e.Filename) {
				conflicted = append(conflicted, e.Filename)
			}
		}

		rec := &recorder{fail: map[string]bool{}}
		var wantFailed []string
		for i, p := range conflicted {
			if failMask&(1<<i) != 0 {
				rec.fail[p] = true
				wantFailed = append(wantFailed, p)
			}
		}

		res, err := MergeAllIndex(index, MergePolicy{OneShot: true, Quiet: true}, recordingResolver, rec)
		if err != nil {
			t.Fatalf("quiet oneshot pass returned %v", err)
		}
		if !slices.Equal(rec.paths(), conflicted) {
			t.Fatalf("resolver saw %v, want each conflicted path once: %v", rec.paths(), conflicted)
		}
		if res.Consumed != unresolved {
			t.Fatalf("consumed %d entries, index has %d unresolved", res.Consumed, unresolved)
		}
		if !slices.Equal(res.FailedPaths, wantFailed) || res.Failed != (len(wantFailed) > 0) {
			t.Fatalf("failed paths %v (failed=%v), want %v", res.FailedPaths, res.Failed, wantFailed)
		}
		for _, c := range rec.calls {
			present := 0
			for _, v := range c.triple {
				if v.Present {
					present++
				}
			}
			if present == 0 {
				t.Fatalf("resolver called for %s with an empty triple", c.path)
			}
		}
	})
}
