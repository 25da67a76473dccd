package smbconf_test

import (
	"context"
	"testing"

	"github.com/jrife/regdb/registry"
	"github.com/jrife/regdb/registry/regdb"
	"github.com/jrife/regdb/registry/smbconf"
	"github.com/jrife/regdb/storage/kv"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newConf(t *testing.T) (*smbconf.Conf, *regdb.DB) {
	t.Helper()

	db := regdb.New(kv.NewMemoryStore(), regdb.Config{Logger: zaptest.NewLogger(t)})
	require.NoError(t, db.Bootstrap(context.Background()))
	t.Cleanup(func() { db.Close() })

	return smbconf.New(db, zaptest.NewLogger(t)), db
}

func TestShareLifecycle(t *testing.T) {
	ctx := context.Background()
	conf, _ := newConf(t)

	names, err := conf.ShareNames(ctx)
	require.NoError(t, err)
	require.Empty(t, names)

	require.NoError(t, conf.CreateShare(ctx, "public"))
	require.ErrorIs(t, conf.CreateShare(ctx, "PUBLIC"), registry.ErrAlreadyExists)

	exists, err := conf.ShareExists(ctx, "Public")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, conf.SetParameter(ctx, "public", "Path", "/srv/public"))
	require.NoError(t, conf.SetParameter(ctx, "public", "  Guest   OK ", "yes"))

	share, err := conf.GetShare(ctx, "public")
	require.NoError(t, err)
	require.Equal(t, smbconf.Share{
		Name: "public",
		Parameters: []smbconf.Parameter{
			{Name: "path", Value: "/srv/public"},
			{Name: "guest ok", Value: "yes"},
		},
	}, share)

	require.NoError(t, conf.DeleteShare(ctx, "public"))
	require.ErrorIs(t, conf.DeleteShare(ctx, "public"), smbconf.ErrNoSuchService)

	_, err = conf.GetShare(ctx, "public")
	require.ErrorIs(t, err, smbconf.ErrNoSuchService)
}

func TestShareNamesGlobalFirst(t *testing.T) {
	ctx := context.Background()
	conf, _ := newConf(t)

	require.NoError(t, conf.CreateShare(ctx, "b"))
	require.NoError(t, conf.CreateShare(ctx, "a"))
	require.NoError(t, conf.SetGlobalParameter(ctx, "workgroup", "SAMBA"))

	names, err := conf.ShareNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"global", "b", "a"}, names)
}

func TestParameters(t *testing.T) {
	ctx := context.Background()
	conf, _ := newConf(t)

	require.ErrorIs(t, conf.SetParameter(ctx, "missing", "path", "/tmp"), smbconf.ErrNoSuchService)

	require.NoError(t, conf.CreateShare(ctx, "data"))

	testCases := map[string]struct {
		param string
		err   error
	}{
		"empty":          {param: "  ", err: smbconf.ErrInvalidParameter},
		"include":        {param: "include", err: smbconf.ErrInvalidParameter},
		"lock directory": {param: "Lock  Directory", err: smbconf.ErrInvalidParameter},
		"lock dir":       {param: "lock dir", err: smbconf.ErrInvalidParameter},
		"config backend": {param: "config backend", err: smbconf.ErrInvalidParameter},
		"allowed":        {param: "read only"},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			err := conf.SetParameter(ctx, "data", testCase.param, "value")

			if testCase.err == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, testCase.err)
				require.ErrorIs(t, err, registry.ErrInvalidArgument)
			}
		})
	}

	value, err := conf.GetParameter(ctx, "data", "READ ONLY")
	require.NoError(t, err)
	require.Equal(t, "value", value)

	_, err = conf.GetParameter(ctx, "data", "comment")
	require.ErrorIs(t, err, smbconf.ErrInvalidParameter)

	require.NoError(t, conf.DeleteParameter(ctx, "data", "read only"))
	require.ErrorIs(t, conf.DeleteParameter(ctx, "data", "read only"), smbconf.ErrInvalidParameter)
	require.ErrorIs(t, conf.DeleteParameter(ctx, "missing", "read only"), smbconf.ErrNoSuchService)
}

func TestGlobalParameters(t *testing.T) {
	ctx := context.Background()
	conf, _ := newConf(t)

	// reading creates [global]
	_, err := conf.GetGlobalParameter(ctx, "workgroup")
	require.ErrorIs(t, err, smbconf.ErrInvalidParameter)

	exists, err := conf.ShareExists(ctx, smbconf.GlobalName)
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, conf.SetGlobalParameter(ctx, "Workgroup", "SAMBA"))

	value, err := conf.GetGlobalParameter(ctx, "workgroup")
	require.NoError(t, err)
	require.Equal(t, "SAMBA", value)

	require.NoError(t, conf.DeleteGlobalParameter(ctx, "workgroup"))
	require.ErrorIs(t, conf.DeleteGlobalParameter(ctx, "workgroup"), smbconf.ErrInvalidParameter)
}

func TestGetConfigAndDrop(t *testing.T) {
	ctx := context.Background()
	conf, _ := newConf(t)

	require.NoError(t, conf.CreateShare(ctx, "homes"))
	require.NoError(t, conf.SetParameter(ctx, "homes", "browseable", "no"))
	require.NoError(t, conf.SetGlobalParameter(ctx, "security", "user"))

	shares, err := conf.GetConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, []smbconf.Share{
		{Name: "global", Parameters: []smbconf.Parameter{{Name: "security", Value: "user"}}},
		{Name: "homes", Parameters: []smbconf.Parameter{{Name: "browseable", Value: "no"}}},
	}, shares)

	before, err := conf.SeqNum(ctx)
	require.NoError(t, err)

	require.NoError(t, conf.Drop(ctx))

	after, err := conf.SeqNum(ctx)
	require.NoError(t, err)
	require.NotEqual(t, before, after)

	shares, err = conf.GetConfig(ctx)
	require.NoError(t, err)
	require.Empty(t, shares)
}

func TestValidateShareName(t *testing.T) {
	require.NoError(t, smbconf.ValidateShareName("public"))
	require.ErrorIs(t, smbconf.ValidateShareName("bad;name"), registry.ErrInvalidArgument)
	require.ErrorIs(t, smbconf.ValidateShareName(""), registry.ErrInvalidArgument)
}
