package resolv

import (
	"context"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/blobpath"
	"github.com/sirupsen/logrus"
)

// Target is a resolved reference: the client and container it points into,
// and its parsed path
type Target struct {
	Client    blobbind.Client
	Container blobbind.Container
	Path      blobpath.Path
}

// Resolver establishes a context for resolving references: the accounts they
// may name, and how placeholders in their paths are expanded.
type Resolver struct {
	accounts blobbind.ClientProvider
	names    blobbind.NameSubstitution
	log      logrus.FieldLogger
}

// NewResolver creates a resolver.  A nil names expands nothing, and a nil log
// uses the standard logger.
func NewResolver(accounts blobbind.ClientProvider, names blobbind.NameSubstitution, log logrus.FieldLogger) *Resolver {
	if names == nil {
		names = Identity{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		accounts: accounts,
		names:    names,
		log:      log,
	}
}

// Expand resolves the placeholders in a reference's path
func (r *Resolver) Expand(ref blobbind.Reference) (string, error) {
	expanded, err := r.names.Expand(ref.Path)
	if err != nil {
		return "", blobbind.NewInvalidPathError(ref.Path, err.Error())
	}
	return expanded, nil
}

// Path expands and parses a reference's path.  This performs no I/O.
func (r *Resolver) Path(ref blobbind.Reference, containerOnly bool) (blobpath.Path, error) {
	expanded, err := r.Expand(ref)
	if err != nil {
		return blobpath.Path{}, err
	}
	return blobpath.Parse(expanded, containerOnly)
}

// Client obtains the client for a reference's account
func (r *Resolver) Client(ctx context.Context, ref blobbind.Reference) (blobbind.Client, error) {
	if err := blobbind.Cancelled(ctx); err != nil {
		return nil, err
	}

	client, err := r.accounts.Client(ctx, ref.Account)
	if err != nil {
		if cerr := blobbind.Cancelled(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}
	return client, nil
}

// Resolve expands and parses the reference's path, then binds it to a container.
func (r *Resolver) Resolve(ctx context.Context, ref blobbind.Reference, containerOnly bool, access blobbind.Access) (*Target, error) {
	path, err := r.Path(ref, containerOnly)
	if err != nil {
		return nil, err
	}
	return r.Bind(ctx, ref, path, access)
}

// Bind obtains the client and container for an already parsed path.  If the
// access is writable, the container is created if it does not exist.  Read
// access performs no existence check.
func (r *Resolver) Bind(ctx context.Context, ref blobbind.Reference, path blobpath.Path, access blobbind.Access) (*Target, error) {
	client, err := r.Client(ctx, ref)
	if err != nil {
		return nil, err
	}

	container := client.Container(path.Container)

	if access.Writable() {
		if err := blobbind.Cancelled(ctx); err != nil {
			return nil, err
		}

		if err := container.CreateIfAbsent(ctx); err != nil {
			if cerr := blobbind.Cancelled(ctx); cerr != nil {
				return nil, cerr
			}
			return nil, err
		}

		r.log.WithFields(logrus.Fields{
			"account":   client.AccountName(),
			"container": path.Container,
		}).Debug("ensured container exists")
	}

	return &Target{
		Client:    client,
		Container: container,
		Path:      path,
	}, nil
}
