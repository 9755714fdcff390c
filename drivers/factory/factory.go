// Package factory makes storage drivers available by name, and builds
// clients for configured accounts from them.
package factory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/birkland/blobbind"
	"github.com/pkg/errors"
)

var (
	mu        sync.RWMutex
	factories = make(map[string]DriverFactory)
)

// DriverFactory creates storage clients.  Drivers call Register() with a
// factory in their init() to become available by name.
type DriverFactory interface {
	// Create returns a client for the named account.  Parameters vary by
	// driver, and unknown parameters are ignored.
	Create(account string, parameters map[string]interface{}) (blobbind.Client, error)
}

// Func adapts a function to a DriverFactory
type Func func(account string, parameters map[string]interface{}) (blobbind.Client, error)

// Create calls f
func (f Func) Create(account string, parameters map[string]interface{}) (blobbind.Client, error) {
	return f(account, parameters)
}

// Register makes a driver available by the provided name.
// If Register is called twice with the same name or if factory is nil, it panics.
func Register(name string, factory DriverFactory) {
	if factory == nil {
		panic("Must not provide nil DriverFactory")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, registered := factories[name]; registered {
		panic(fmt.Sprintf("DriverFactory named %s already registered", name))
	}
	factories[name] = factory
}

// Drivers lists the names of all registered drivers
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create a client using the named driver.  If no such driver is registered,
// an InvalidDriverError is returned.
func Create(driver, account string, parameters map[string]interface{}) (blobbind.Client, error) {
	mu.RLock()
	f, ok := factories[driver]
	mu.RUnlock()

	if !ok {
		return nil, InvalidDriverError{driver}
	}

	client, err := f.Create(account, parameters)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create %s client for account %s", driver, account)
	}
	return client, nil
}

// InvalidDriverError records an attempt to use an unregistered driver
type InvalidDriverError struct {
	Name string
}

func (err InvalidDriverError) Error() string {
	return fmt.Sprintf("storage driver not registered: %s", err.Name)
}

// Account is the configuration of a single storage account
type Account struct {
	Driver     string
	Parameters map[string]interface{}
}

// Provider is a blobbind.ClientProvider over a set of configured accounts.
// Clients are created on first use, and reused afterwards.
type Provider struct {
	accounts       map[string]Account
	defaultAccount string

	mu      sync.Mutex
	clients map[string]blobbind.Client
}

// NewProvider creates a Provider.  References naming no account use
// defaultAccount.
func NewProvider(accounts map[string]Account, defaultAccount string) *Provider {
	return &Provider{
		accounts:       accounts,
		defaultAccount: defaultAccount,
		clients:        make(map[string]blobbind.Client),
	}
}

// Client returns the client for the named account.  Unconfigured accounts,
// and failures to create a client, are reported as ErrStorageUnavailable.
func (p *Provider) Client(ctx context.Context, account string) (blobbind.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if account == "" {
		account = p.defaultAccount
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[account]; ok {
		return client, nil
	}

	cfg, ok := p.accounts[account]
	if !ok {
		return nil, errors.Wrapf(blobbind.ErrStorageUnavailable, "account %q is not configured", account)
	}

	client, err := Create(cfg.Driver, account, cfg.Parameters)
	if err != nil {
		return nil, errors.Wrapf(blobbind.ErrStorageUnavailable, "%s", err)
	}

	p.clients[account] = client
	return client, nil
}
