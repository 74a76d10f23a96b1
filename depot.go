// Package depot is the data-access and authentication layer of a
// multi-tenant transit data platform.
//
// Every document type (agencies, stops, rides, zones, users, sessions,
// roles, ...) is reached through a typed collection accessor from the
// collection package. Accessors are process-wide singletons held by a
// collection.Registry and share connections owned by a connector.Pool.
// The auth package resolves session tokens to users and merges role and
// user grants into a single effective permission.
//
//	reg := collection.NewRegistry(resolver, collection.WithLogger(logger))
//	defer reg.Close(ctx)
//
//	stops, err := collection.Get(ctx, reg, transit.Stops)
//	page, err := stops.FindMany(ctx, bson.M{"municipality_id": muniID},
//	    collection.Page{Page: 2, PerPage: 50}, nil)
//
//	provider, err := auth.NewProvider(auth.WithStore(mongo.New(reg)))
//	perm, err := provider.GetPermissions(ctx, token, "fleet", "read")
//
// This package holds the error taxonomy and the shared Config.
package depot
