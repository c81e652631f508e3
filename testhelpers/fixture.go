package testhelpers

import "fmt"

// BranchingFixture is a repository with fifteen numbered commits spread
// over four branches:
//
//	0 - 1 - 2 - 5 - 6 - 13 - 14          master
//	         \       \
//	          3 - 4   7 - 8 - 11 - 12    branch1, branch2
//	                       \
//	                        9 - 10       branch3
//
// Commits[i] holds the hash of commit i. HEAD ends on master.
type BranchingFixture struct {
	Repo    *GitRepo
	Commits []string
}

// NewBranchingFixture builds the fixture in a fresh repository under dir.
func NewBranchingFixture(dir string) (*BranchingFixture, error) {
	repo, err := NewGitRepo(dir)
	if err != nil {
		return nil, err
	}

	f := &BranchingFixture{Repo: repo, Commits: make([]string, 15)}

	commit := func(i int) error {
		sha, err := repo.Commit(fmt.Sprintf("c%d.txt", i), fmt.Sprintf("change %d\n", i), fmt.Sprintf("commit %d", i))
		f.Commits[i] = sha
		return err
	}
	commitRange := func(from, to int) error {
		for i := from; i <= to; i++ {
			if err := commit(i); err != nil {
				return err
			}
		}
		return nil
	}

	steps := []func() error{
		func() error { return commitRange(0, 2) },
		func() error { return repo.CheckoutNew("branch1") },
		func() error { return commitRange(3, 4) },
		func() error { return repo.Checkout("master") },
		func() error { return commitRange(5, 6) },
		func() error { return repo.CheckoutNew("branch2") },
		func() error { return commitRange(7, 8) },
		func() error { return repo.CheckoutNew("branch3") },
		func() error { return commitRange(9, 10) },
		func() error { return repo.Checkout("branch2") },
		func() error { return commitRange(11, 12) },
		func() error { return repo.Checkout("master") },
		func() error { return commitRange(13, 14) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Hashes maps commit indices to hashes, newest first in the given order.
func (f *BranchingFixture) Hashes(indices ...int) []string {
	hashes := make([]string, len(indices))
	for i, idx := range indices {
		hashes[i] = f.Commits[idx]
	}
	return hashes
}
