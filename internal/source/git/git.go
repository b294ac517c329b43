package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	xssh "golang.org/x/crypto/ssh"
)

// GitSource clones or pulls the vault repository into a local directory.
type GitSource struct {
	repo   string
	path   string
	branch string
	auth   transport.AuthMethod
}

func NewGitSource(c *Config) (*GitSource, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	g := &GitSource{
		repo:   c.URL,
		path:   c.LocalRepository,
		branch: c.Branch,
	}
	switch {
	case c.PrivateKey != "":
		if _, err := os.Stat(c.PrivateKey); err != nil {
			return nil, err
		}
		publicKeys, err := ssh.NewPublicKeysFromFile("git", c.PrivateKey, "")
		if err != nil {
			return nil, err
		}
		if c.Insecure {
			publicKeys.HostKeyCallback = xssh.InsecureIgnoreHostKey()
		} else {
			knownHosts := c.KnownHosts
			if knownHosts == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return nil, err
				}
				knownHosts = filepath.Join(home, ".ssh", "known_hosts")
			}
			callback, err := ssh.NewKnownHostsCallback(knownHosts)
			if err != nil {
				return nil, fmt.Errorf("error loading known hosts: %w", err)
			}
			publicKeys.HostKeyCallback = callback
		}
		g.auth = publicKeys
	case c.Username != "":
		g.auth = &http.BasicAuth{
			Username: c.Username,
			Password: c.Password,
		}
	}
	return g, nil
}

func (g *GitSource) Sync(ctx context.Context) error {
	var options git.CloneOptions
	var pullOptions git.PullOptions

	options.URL = g.repo
	options.Auth = g.auth
	pullOptions.Auth = g.auth
	if g.branch != "" {
		options.ReferenceName = plumbing.NewBranchReferenceName(g.branch)
		options.SingleBranch = true
		pullOptions.ReferenceName = options.ReferenceName
		pullOptions.SingleBranch = true
	}
	_, err := git.PlainCloneContext(ctx, g.path, false, &options)
	if err != nil && !errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return err
	}
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		r, err := git.PlainOpen(g.path)
		if err != nil {
			return err
		}
		w, err := r.Worktree()
		if err != nil {
			return err
		}
		err = w.PullContext(ctx, &pullOptions)
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return err
		}
		log.Debug("pulled vault repository", "path", g.path)
		return nil
	}
	log.Debug("cloned vault repository", "repo", g.repo, "path", g.path)
	return nil
}

func (g *GitSource) Close(_ context.Context) error {
	return nil
}

func (g *GitSource) Clean() error {
	return os.RemoveAll(g.path)
}
