package discovery_test

import (
	"context"
	"testing"

	"github.com/rileyhilliard/zenctl/internal/discovery"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	rpctesting "github.com/rileyhilliard/zenctl/internal/rpc/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_ZPropertiesOmitsEmpty(t *testing.T) {
	r := discovery.NewRequest()
	r.Communities = " public\nprivate "
	r.CommandUsername = "zenmon"
	r.WinRMPassword = "   "

	assert.Equal(t, map[string]string{
		discovery.PropSnmpCommunities: "public\nprivate",
		discovery.PropCommandUsername: "zenmon",
	}, r.ZProperties())
}

func TestRequest_Validate(t *testing.T) {
	r := discovery.NewRequest()
	r.Communities = "public"

	err := r.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDiscovery))
	assert.Contains(t, err.Error(), discovery.RangeInputMessage)

	r.Ranges = "10.0.0.0/24"
	r.Communities = ""
	assert.Error(t, r.Validate(), "communities are required")

	r.Communities = "public"
	assert.NoError(t, r.Validate())
}

func TestRequest_Params(t *testing.T) {
	r := &discovery.Request{Ranges: "10.0.0.0/24,\n10.0.1.1-5", Communities: "public"}

	p, err := r.Params()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/24", "10.0.1.1-5"}, p.Networks)
	assert.Equal(t, "localhost", p.Collector, "collector defaults to localhost")
}

func TestSubmit(t *testing.T) {
	fake := rpctesting.NewFakeConsole()
	defer fake.Close()
	networks := rpc.NewNetworks(rpc.NewClient(fake.URL()))

	r := discovery.NewRequest()
	r.Ranges = "10.0.0.0/24"
	r.Communities = "public"
	r.Collector = "dc2"

	jobs, err := discovery.Submit(context.Background(), networks, r)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "dc2", jobs[0].Collector)
	assert.Equal(t, "10.0.0.0/24", jobs[0].Networks)

	var sent rpc.DiscoverParams
	require.NoError(t, fake.CallsTo("discoverDevices")[0].Decode(&sent))
	assert.Equal(t, "public", sent.ZProperties[discovery.PropSnmpCommunities])
}

func TestSubmit_InvalidSendsNothing(t *testing.T) {
	fake := rpctesting.NewFakeConsole()
	defer fake.Close()

	_, err := discovery.Submit(context.Background(), rpc.NewNetworks(rpc.NewClient(fake.URL())), discovery.NewRequest())
	require.Error(t, err)
	assert.Empty(t, fake.Calls())
}

func TestSubmit_Rejected(t *testing.T) {
	fake := rpctesting.NewFakeConsole()
	defer fake.Close()
	fake.FailMethod("discoverDevices", "collector offline")

	r := &discovery.Request{Ranges: "10.0.0.1", Communities: "public"}
	_, err := discovery.Submit(context.Background(), rpc.NewNetworks(rpc.NewClient(fake.URL())), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collector offline")
	assert.True(t, errors.IsCode(err, errors.ErrDiscovery))
}

func TestNewForm(t *testing.T) {
	r := discovery.NewRequest()
	assert.NotNil(t, discovery.NewForm(r, []string{"localhost"}))
	assert.NotNil(t, discovery.NewForm(r, []string{"localhost", "dc2"}))
}
