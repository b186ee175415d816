// Package router implements cotton's declarative route table and request
// path matching.
//
// Routes are declared as path patterns mapped to route definitions:
//
//	table := router.NewTable()
//	table.Add("/", router.Route{Page: "pages/home"})
//	table.Add("/user/:id", router.Route{
//	    Page:   "pages/user",
//	    Loader: "pages/user.loader",
//	})
//
// Pattern segments prefixed with ":" match any single path segment and
// capture it as a named parameter. Matching is case-insensitive and
// trailing slashes are ignored on both sides.
//
// When several patterns match the same path, the route declared first
// wins. There is no specificity ranking: a static route declared after a
// parameter route that also matches it is unreachable. Declaration order
// is therefore part of the routing contract.
package router
