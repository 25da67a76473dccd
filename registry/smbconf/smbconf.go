// Package smbconf keeps an smb.conf style configuration in the
// registry. Every section is a subkey of BaseKey and every
// parameter is a REG_SZ value of that subkey.
package smbconf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jrife/regdb/registry"
	"github.com/jrife/regdb/utils/log"
	"go.uber.org/zap"
)

const (
	// BaseKey holds one subkey per section
	BaseKey = `HKLM\SOFTWARE\Samba\smbconf`
	// GlobalName is the name of the [global] section
	GlobalName = "global"
	// InvalidShareNameChars may not appear in a share name
	InvalidShareNameChars = `%<>*?|/\+=;:",`
)

var (
	// ErrNoSuchService is returned when a section does not exist
	ErrNoSuchService = fmt.Errorf("no such service: %w", registry.ErrNotFound)
	// ErrInvalidParameter is returned for a parameter that is
	// missing, empty or not allowed in the registry
	ErrInvalidParameter = fmt.Errorf("invalid parameter: %w", registry.ErrInvalidArgument)
)

// parameters that only make sense in a file based configuration
var forbiddenParameters = map[string]bool{
	"include":        true,
	"lock directory": true,
	"lock dir":       true,
	"config backend": true,
}

// Registry is the subset of regdb.DB used by Conf
type Registry interface {
	FetchSubkeys(ctx context.Context, path string) (*registry.SubkeyCatalog, error)
	FetchValues(ctx context.Context, path string) (*registry.ValueCatalog, error)
	KeyExists(ctx context.Context, path string) (bool, error)
	CreateKey(ctx context.Context, parent string, name string) (bool, error)
	CreateKeyExclusive(ctx context.Context, parent string, name string) error
	DeleteKey(ctx context.Context, parent string, name string) error
	GetValue(ctx context.Context, path string, name string) (registry.Value, error)
	SetValue(ctx context.Context, path string, value registry.Value) error
	DeleteValue(ctx context.Context, path string, name string) error
	CurrentSequence(ctx context.Context) (uint64, error)
}

// Parameter is one "name = value" line of a section
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Share is a section with its parameters in stored order
type Share struct {
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
}

// Conf reads and edits the configuration
type Conf struct {
	registry Registry
	logger   *zap.Logger
}

// New creates a Conf on top of reg. A nil logger discards output.
func New(reg Registry, logger *zap.Logger) *Conf {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Conf{registry: reg, logger: logger}
}

// CanonicalParameter lowercases name and collapses whitespace
func CanonicalParameter(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// ValidateShareName checks a name given for a new share
func ValidateShareName(name string) error {
	if err := registry.ValidateName(name); err != nil {
		return err
	}

	if strings.ContainsAny(name, InvalidShareNameChars) {
		return fmt.Errorf("share name %q contains invalid characters (any of %s): %w", name, InvalidShareNameChars, registry.ErrInvalidArgument)
	}

	return nil
}

func sharePath(name string) string {
	return registry.Join(BaseKey, name)
}

// ShareNames lists the sections. [global] comes first if present.
func (conf *Conf) ShareNames(ctx context.Context) ([]string, error) {
	catalog, err := conf.registry.FetchSubkeys(ctx, BaseKey)

	if err != nil {
		return nil, fmt.Errorf("could not list shares: %w", err)
	}

	names := make([]string, 0, catalog.Len())

	if catalog.Contains(GlobalName) {
		names = append(names, GlobalName)
	}

	for _, name := range catalog.Names {
		if strings.EqualFold(name, GlobalName) {
			continue
		}

		names = append(names, name)
	}

	return names, nil
}

// ShareExists reports whether the section exists
func (conf *Conf) ShareExists(ctx context.Context, name string) (bool, error) {
	if registry.ValidateName(name) != nil {
		return false, nil
	}

	return conf.registry.KeyExists(ctx, sharePath(name))
}

func (conf *Conf) requireShare(ctx context.Context, name string) error {
	exists, err := conf.ShareExists(ctx, name)

	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%q: %w", name, ErrNoSuchService)
	}

	return nil
}

// CreateShare adds an empty section. It returns
// registry.ErrAlreadyExists if the section exists.
func (conf *Conf) CreateShare(ctx context.Context, name string) error {
	if err := registry.ValidateName(name); err != nil {
		return err
	}

	if err := conf.registry.CreateKeyExclusive(ctx, BaseKey, name); err != nil {
		return fmt.Errorf("could not create share %q: %w", name, err)
	}

	log.Logger(ctx, conf.logger).Info("created share", zap.String("share", name))

	return nil
}

// GetShare returns the section and its parameters
func (conf *Conf) GetShare(ctx context.Context, name string) (Share, error) {
	if err := conf.requireShare(ctx, name); err != nil {
		return Share{}, err
	}

	catalog, err := conf.registry.FetchValues(ctx, sharePath(name))

	if err != nil {
		return Share{}, fmt.Errorf("could not read share %q: %w", name, err)
	}

	share := Share{Name: name, Parameters: make([]Parameter, 0, catalog.Len())}

	for _, value := range catalog.Values {
		share.Parameters = append(share.Parameters, Parameter{Name: value.Name, Value: value.Display()})
	}

	return share, nil
}

// DeleteShare removes the section and its parameters
func (conf *Conf) DeleteShare(ctx context.Context, name string) error {
	err := conf.registry.DeleteKey(ctx, BaseKey, name)

	if errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("%q: %w", name, ErrNoSuchService)
	}

	if err != nil {
		return fmt.Errorf("could not delete share %q: %w", name, err)
	}

	log.Logger(ctx, conf.logger).Info("deleted share", zap.String("share", name))

	return nil
}

// SetParameter sets a parameter of an existing section
func (conf *Conf) SetParameter(ctx context.Context, service string, param string, value string) error {
	name := CanonicalParameter(param)

	if name == "" {
		return fmt.Errorf("empty parameter name: %w", ErrInvalidParameter)
	}

	if forbiddenParameters[name] {
		return fmt.Errorf("parameter %q is not allowed in the registry: %w", name, ErrInvalidParameter)
	}

	if err := conf.requireShare(ctx, service); err != nil {
		return err
	}

	v, err := registry.StringValue(name, value)

	if err != nil {
		return err
	}

	if err := conf.registry.SetValue(ctx, sharePath(service), v); err != nil {
		return fmt.Errorf("could not set %q in %q: %w", name, service, err)
	}

	log.Logger(ctx, conf.logger).Debug("set parameter", zap.String("share", service), zap.String("parameter", name))

	return nil
}

// GetParameter returns the value of a parameter
func (conf *Conf) GetParameter(ctx context.Context, service string, param string) (string, error) {
	if err := conf.requireShare(ctx, service); err != nil {
		return "", err
	}

	value, err := conf.registry.GetValue(ctx, sharePath(service), CanonicalParameter(param))

	if errors.Is(err, registry.ErrNotFound) {
		return "", fmt.Errorf("parameter %q is not set in %q: %w", param, service, ErrInvalidParameter)
	}

	if err != nil {
		return "", fmt.Errorf("could not read %q in %q: %w", param, service, err)
	}

	return value.Display(), nil
}

// DeleteParameter removes a parameter
func (conf *Conf) DeleteParameter(ctx context.Context, service string, param string) error {
	if err := conf.requireShare(ctx, service); err != nil {
		return err
	}

	err := conf.registry.DeleteValue(ctx, sharePath(service), CanonicalParameter(param))

	if errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("parameter %q is not set in %q: %w", param, service, ErrInvalidParameter)
	}

	if err != nil {
		return fmt.Errorf("could not delete %q in %q: %w", param, service, err)
	}

	return nil
}

func (conf *Conf) ensureGlobal(ctx context.Context) error {
	if _, err := conf.registry.CreateKey(ctx, BaseKey, GlobalName); err != nil {
		return fmt.Errorf("could not create [%s]: %w", GlobalName, err)
	}

	return nil
}

// SetGlobalParameter sets a parameter of [global], creating the
// section if needed
func (conf *Conf) SetGlobalParameter(ctx context.Context, param string, value string) error {
	if err := conf.ensureGlobal(ctx); err != nil {
		return err
	}

	return conf.SetParameter(ctx, GlobalName, param, value)
}

// GetGlobalParameter returns a parameter of [global], creating the
// section if needed
func (conf *Conf) GetGlobalParameter(ctx context.Context, param string) (string, error) {
	if err := conf.ensureGlobal(ctx); err != nil {
		return "", err
	}

	return conf.GetParameter(ctx, GlobalName, param)
}

// DeleteGlobalParameter removes a parameter of [global], creating
// the section if needed
func (conf *Conf) DeleteGlobalParameter(ctx context.Context, param string) error {
	if err := conf.ensureGlobal(ctx); err != nil {
		return err
	}

	return conf.DeleteParameter(ctx, GlobalName, param)
}

// GetConfig returns every section, [global] first
func (conf *Conf) GetConfig(ctx context.Context) ([]Share, error) {
	names, err := conf.ShareNames(ctx)

	if err != nil {
		return nil, err
	}

	shares := make([]Share, 0, len(names))

	for _, name := range names {
		share, err := conf.GetShare(ctx, name)

		if err != nil {
			return nil, err
		}

		shares = append(shares, share)
	}

	return shares, nil
}

// Drop deletes the whole configuration and leaves an empty base key
func (conf *Conf) Drop(ctx context.Context) error {
	parent, name, err := registry.Parent(BaseKey)

	if err != nil {
		return err
	}

	if err := conf.registry.DeleteKey(ctx, parent, name); err != nil && !errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("could not drop configuration: %w", err)
	}

	if _, err := conf.registry.CreateKey(ctx, parent, name); err != nil {
		return fmt.Errorf("could not recreate %s: %w", BaseKey, err)
	}

	log.Logger(ctx, conf.logger).Info("dropped configuration")

	return nil
}

// SeqNum returns a number that changes whenever the configuration
// may have changed
func (conf *Conf) SeqNum(ctx context.Context) (uint64, error) {
	return conf.registry.CurrentSequence(ctx)
}
