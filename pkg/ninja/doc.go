// Package ninja provides types, interfaces, and helpers for working with the
// NinjaRMM public REST API (v2).
//
// # Overview
//
// The ninja package defines the domain types (Record, Cursor, QueryResult)
// and the interfaces for resource-oriented clients (e.g., OrganizationsClient,
// DevicesClient, QueriesClient). A concrete implementation of these clients is
// provided by the ninjaclient package, which wires configuration, transport,
// OAuth2 authentication, and timestamp normalization. Most consumers should
// import ninjaclient to construct a client and then interact with the resource
// client interfaces exposed here.
//
// Getting a client
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
//	  cli, err := ninjaclient.New(ctx, &ninja.Config{
//	    APIEndpoint:  "https://app.ninjarmm.com",
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // List the first page of organizations
//	  orgs, err := cli.Organizations().List(ctx, ninja.NewQueryParams().WithPageSize(50))
//	  if err != nil { log.Fatal(err) }
//	  _ = orgs
//	}
//
// # Pagination
//
// The API paginates two ways. Offset-style endpoints (organizations, devices,
// tags) take pageSize and after parameters, where after is the id of the last
// record on the previous page. Cursor-style endpoints (device search, the
// /v2/queries family) return an opaque cursor name that is echoed back to
// fetch the next page. Both styles are wrapped by iterators:
//
//	it := ninja.NewOffsetIterator(ctx, pageFn, ninja.DefaultPaginationOptions())
//	for it.HasNext() {
//	  rec, err := it.Next()
//	  if err != nil { break }
//	  _ = rec
//	}
//
// or fetch all results at once:
//
//	all, err := ninja.FetchAllOffset(ctx, pageFn, ninja.DefaultPaginationOptions())
//	if err != nil { /* handle error */ }
//	_ = all
//
// # Timestamps
//
// API responses carry epoch timestamps (seconds, possibly fractional) in
// fields such as created, lastContact, and updatedOn. NormalizeTimestamps
// walks a decoded response and converts those values to RFC 3339 UTC strings,
// preserving sub-second precision. Conversion can be toggled per client or per
// call; see TimestampConverter.
//
// # Errors
//
// API errors are represented by APIError. Helpers such as IsNotFound,
// IsUnauthorized, and IsRateLimited make it easy to branch on common cases.
//
// # Interceptors and caching
//
// The package includes generic building blocks such as request/response
// interceptors (for logging, auth headers, rate limiting) and a pluggable
// Cache abstraction with in-memory and NATS JetStream KV backends. The
// ninjaclient package composes these pieces for a sensible default client;
// applications with advanced needs can also use these primitives directly.
package ninja
