// Package ninjaclient provides the primary entry point for constructing a
// NinjaRMM API client that implements the ninja.Client interface.
//
// It layers configuration, HTTP transport, and OAuth2 authentication on top
// of the resource interfaces and types defined in the ninja package. Most
// applications should import ninjaclient to build a client, then use the
// returned ninja.Client to access resource-specific clients, for example
// Organizations(), Devices(), Queries(), and Tags().
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/jstrn/ninjarmm/pkg/ninja"
//	  "github.com/jstrn/ninjarmm/pkg/ninjaclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // OAuth2 client credentials (the usual case):
//	  cli, err := ninjaclient.New(ctx, &ninja.Config{
//	    APIEndpoint:       ninjaclient.EndpointUS,
//	    ClientID:          "client-id",
//	    ClientSecret:      "client-secret",
//	    ConvertTimestamps: true,
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with an access token you already have:
//	  cli, err = ninjaclient.New(ctx, &ninja.Config{
//	    APIEndpoint: ninjaclient.EndpointUS,
//	    AccessToken: "eyJhbGciOi...", // bearer token
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Use resource clients via the ninja.Client interface
//	  devices, err := cli.Devices().ListAll(ctx, ninja.NewQueryParams().WithPageSize(100))
//	  if err != nil { log.Fatal(err) }
//	  _ = devices
//	}
//
// # Endpoints
//
// NinjaRMM instances are regional. Pass one of the Endpoint constants (or a
// bare host such as "eu.ninjarmm.com"; "https://" is added when no scheme is
// present). The OAuth2 token endpoint defaults to APIEndpoint + "/oauth/token"
// and rarely needs overriding.
//
// # Helpers
//
// The package also provides convenience constructors NewWithToken and
// NewWithClientCredentials that wrap New with the appropriate configuration.
package ninjaclient
